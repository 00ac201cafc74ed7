package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rmarken5/picked-posts/tool/logic/aws"
	"github.com/rmarken5/picked-posts/tool/logic/build"
)

var configPath = flag.String("config", "", "path to a yaml config file listing the picked posts lists")
var excerptEngine = flag.String("excerpt-engine", "", "markdown engine for summaries: gomarkdown or goldmark")
var minifyOutput = flag.Bool("minify", false, "minify the generated json payload")
var postConcurrency = flag.Int("post-concurrency", 0, "max posts read at once per list, 0 for no limit")
var bucketName = flag.String("bucket-name", "", "name of s3 bucket")
var region = flag.String("region", "us-east-2", "name of s3 region")
var keyPrefix = flag.String("key-prefix", "picked-posts", "s3 key prefix for generated modules")
var disableUpload = flag.Bool("disable-upload", true, "setting the disable-upload flag will generate the modules without pushing them to s3")

func main() {
	flag.Parse()
	ctx := context.Background()

	cfg := build.DefaultConfig()
	if *configPath != "" {
		loaded, err := build.LoadConfig(*configPath)
		if err != nil {
			slog.Error("error loading config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *excerptEngine != "" {
		cfg.ExcerptEngine = *excerptEngine
	}
	if *minifyOutput {
		cfg.Minify = true
	}
	if *postConcurrency > 0 {
		cfg.PostConcurrency = *postConcurrency
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	log.Println("WithoutUpload: ", *disableUpload)
	var s3Client aws.S3Client = aws.NoOp{}
	if !*disableUpload {
		if *bucketName == "" {
			log.Printf("-bucket-name is required")
			os.Exit(99)
		}
		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(*region))
		if err != nil {
			log.Fatal(err)
		}
		s3Client = aws.New(s3.NewFromConfig(awsCfg), *bucketName)
	}

	builder, err := build.NewFromConfig(cfg, s3Client, *keyPrefix)
	if err != nil {
		slog.Error("error creating picks builder", "error", err)
		os.Exit(1)
	}

	if err := builder.BuildPicks(ctx, cfg.Lists); err != nil {
		slog.Error("error generating picked blog info files", "error", err)
		os.Exit(1)
	}
	slog.Info("[Finish] Generate picked blog info files")
}
