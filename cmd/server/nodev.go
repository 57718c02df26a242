//go:build !dev

package main

import (
	"github.com/go-chi/chi/v5"
	"github.com/mbtiatlas/insights/config"
	"github.com/mbtiatlas/insights/dataset"
)

func registerDevRoutes(chi.Router, *config.Config, *dataset.Cache) {}
