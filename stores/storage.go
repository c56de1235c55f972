package stores

import (
	"os"

	"collab-server/core"
	"collab-server/stores/memory"
	"collab-server/stores/sqlite"

	"github.com/sirupsen/logrus"
)

func GetStore() core.ActivityStore {
	storageType := os.Getenv("STORAGE_TYPE")
	var store core.ActivityStore

	storageField := logrus.Fields{
		"storageType": storageType,
	}

	switch storageType {
	case "sqlite":
		dataSourceName := os.Getenv("DATA_SOURCE_NAME")
		storageField["dataSourceName"] = dataSourceName
		store = sqlite.NewActivityStore(dataSourceName)
	default:
		store = memory.NewActivityStore()
		storageField["storageType"] = "in-memory"
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store
}
