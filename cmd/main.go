package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	cfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/sirupsen/logrus"

	"github.com/adiazny/slack-diary-lambda/internal/pkg/config"
	"github.com/adiazny/slack-diary-lambda/internal/pkg/diary"
)

/*
	One binary serves three functions. The function's handler setting picks
	the entry point: write (POST slash command), read (GET slash command) or
	remind (EventBridge schedule).
*/

const (
	handlerEnvKey = "_HANDLER"

	writeHandler  = "write"
	readHandler   = "read"
	remindHandler = "remind"
)

func newLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})

	return logrus.NewEntry(logger).WithField("component", "diary")
}

func newService(ctx context.Context, log *logrus.Entry) (*diary.Service, error) {
	envVars, err := config.Setup()
	if err != nil {
		return nil, err
	}

	awsConfig, err := cfg.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config %w", err)
	}

	return diary.New(log, envVars, awsConfig)
}

func main() {
	log := newLogger()

	handler := os.Getenv(handlerEnvKey)
	if len(os.Args) > 1 {
		handler = os.Args[1]
	}

	log = log.WithField("handler", handler)
	log.Info("starting up")

	svc, err := newService(context.Background(), log)
	if err != nil {
		log.WithError(err).Error()
		os.Exit(1)
	}

	switch handler {
	case writeHandler:
		lambda.Start(svc.Write)
	case readHandler:
		lambda.Start(svc.Read)
	case remindHandler:
		lambda.Start(svc.Remind)
	default:
		log.Errorf("unknown handler %q, want one of %s, %s, %s", handler, writeHandler, readHandler, remindHandler)
		os.Exit(1)
	}
}
