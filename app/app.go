package app

import (
	"github.com/mbolis/desirability-form/config"
	"github.com/mbolis/desirability-form/normalize"
	"github.com/mbolis/desirability-form/store"
)

type App struct {
	*store.Store
	*normalize.Validator
	config.Config
}
