package persistence

import (
	"fmt"

	"coinsage/sources/tracing"
)

type gormtracer struct {
	logger *tracing.Logger
}

func (t *gormtracer) Printf(msg string, data ...interface{}) {
	t.logger.W(fmt.Sprintf(msg, data...), tracing.Scope, "persistence.gorm")
}
