package workflow

import (
	"github.com/scoreline/powerrank/pkg/engine/activity"
)

type Context struct {
	ActivityContext *activity.Context
}
