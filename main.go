package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/swiveltech/pdf2img/config"
	"github.com/swiveltech/pdf2img/logging"
	"github.com/swiveltech/pdf2img/processor"
	"github.com/swiveltech/pdf2img/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logging.InitLogger(cfg.LogLevel, cfg.LogFile)

	client, err := storage.NewClient(context.Background(), cfg.AWSRegion)
	if err != nil {
		log.Fatalf("Failed to create S3 client: %v", err)
	}

	logging.Info("pdf2img starting", "bucket", cfg.OutputBucket, "dpi", cfg.RenderDPI)
	lambda.Start(processor.NewWithS3(cfg, client).Handle)
}
