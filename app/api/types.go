package api

import (
	"io"

	"github.com/donight/donight/app/database"
	"github.com/donight/donight/app/export"
	"github.com/donight/donight/app/finder"
	"github.com/donight/donight/app/sources"
	"github.com/donight/donight/app/tasks"
)

type ExporterInterface interface {
	Write(w io.Writer, events []database.Event) error
}

var _ ExporterInterface = (*export.ExcelWriter)(nil)

type Handler struct {
	eventRepo   database.EventRepository
	configCache *sources.ConfigCache
	exporter    ExporterInterface
	finder      *finder.EventFinder
	scheduler   tasks.TaskSchedulerInterface
}
