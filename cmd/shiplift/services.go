package main

import (
	"github.com/avezina/shiplift/internal/awscli"
	"github.com/avezina/shiplift/internal/config"
	"github.com/avezina/shiplift/internal/docker"
	"github.com/avezina/shiplift/internal/logging"
	"github.com/avezina/shiplift/internal/pipeline"
	"github.com/avezina/shiplift/internal/runner"
)

// services bundles the shared clients the commands hand to each other.
// Everything is built from the resolved configuration at command start.
type services struct {
	log    logging.Logger
	run    *runner.Exec
	aws    *awscli.Client
	docker *docker.Client
	store  *pipeline.StateStore
}

func newServices() *services {
	log := logging.ForLevel(config.LogLevel())
	run := runner.New(log)
	return &services{
		log:    log,
		run:    run,
		aws:    awscli.NewClient(config.AWSPath(), config.AWSRegion(), config.AWSProfile(), run),
		docker: docker.NewClient(config.DockerPath(), run),
		store:  pipeline.NewStateStore(config.StateDir()),
	}
}
