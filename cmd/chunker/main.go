package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/driftwoodlabs/chatsift/pipeline"
	"github.com/driftwoodlabs/chatsift/pipeline/fileutils"
	"github.com/driftwoodlabs/chatsift/pipeline/provider"
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	// .env is optional; real deployments set the key in the environment.
	_ = godotenv.Load()

	var client *openai.Client
	if cfg.needsAPIKey() {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			fmt.Fprintln(os.Stderr, "missing OPENAI_API_KEY (or pass -api-key)")
			os.Exit(2)
		}
		c := openai.NewClient(option.WithAPIKey(apiKey))
		client = &c
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var msgs []pipeline.Message
	if err := fileutils.ReadJSONFile(cfg.InputFile, &msgs); err != nil {
		log.Fatal("reading filtered messages", "err", err)
	}
	if len(msgs) == 0 {
		log.Fatal("no messages in input", "in", cfg.InputFile)
	}
	log.Info("loaded messages", "in", cfg.InputFile, "count", len(msgs))

	authors := make(pipeline.AuthorLookup)
	if fileutils.FileExists(cfg.AuthorsFile) {
		if err := fileutils.ReadJSONFile(cfg.AuthorsFile, &authors); err != nil {
			log.Fatal("reading author lookup", "err", err)
		}
	} else {
		log.Warn("author lookup not found, names will be unresolved", "authors", cfg.AuthorsFile)
	}
	msgs = pipeline.ApplyAuthorNames(msgs, authors)

	var summarizer pipeline.Summarizer
	if client != nil && !cfg.NoSummaries {
		summarizer = provider.NewTopicSummarizer(client, cfg.Model, topicInstructions)
	}

	switch cfg.Mode {
	case modeHeuristic:
		var counter *pipeline.TiktokenCounter
		counter, err = pipeline.NewTiktokenCounter(pipeline.DefaultEncoding)
		if err != nil {
			log.Fatal("loading tokenizer", "err", err)
		}
		err = runHeuristic(ctx, cfg, msgs, authors, counter, summarizer)
	case modeBatch:
		err = runBatch(ctx, cfg, msgs, authors, provider.NewOpenAIJobClient(client), summarizer)
	}
	if err != nil {
		log.Fatal("chunking failed", "mode", cfg.Mode, "err", err)
	}
}

func runHeuristic(ctx context.Context, cfg Config, msgs []pipeline.Message, authors pipeline.AuthorLookup, counter pipeline.TokenCounter, summarizer pipeline.Summarizer) error {
	outFile := filepath.Join(cfg.OutputDir, "chunks_heuristic.json")
	if !cfg.Overwrite && fileutils.FileExists(outFile) {
		log.Info("skip chunker: output already exists", "out", outFile)
		return nil
	}

	chunks, stats, err := pipeline.ChunkMessages(msgs, counter, pipeline.HeuristicOptions{
		MaxGap:      time.Duration(cfg.MaxGapSeconds) * time.Second,
		TokenBudget: cfg.TokenBudget,
	})
	if err != nil {
		return err
	}
	log.Info("segmented messages",
		"chunks", len(chunks),
		"time_splits", stats.TimeSplits,
		"token_splits", stats.TokenSplits)

	chunks = pipeline.AssembleChunks(ctx, chunks, pipeline.AssembleOptions{
		Authors:          authors,
		Summarizer:       summarizer,
		SummaryThreshold: cfg.SummaryThreshold,
		AssignTopics:     true,
	})

	if err := fileutils.WriteJSONFileAtomic(outFile, chunks, cfg.Pretty); err != nil {
		return err
	}
	log.Info("wrote chunks", "out", outFile, "chunks", len(chunks))
	return nil
}

func runBatch(ctx context.Context, cfg Config, msgs []pipeline.Message, authors pipeline.AuthorLookup, jobClient pipeline.JobClient, summarizer pipeline.Summarizer) error {
	runner := pipeline.NewJobRunner(jobClient, pipeline.JobRunnerOptions{
		PollInterval: time.Duration(cfg.PollSeconds) * time.Second,
		MaxWait:      time.Duration(cfg.MaxWaitMinutes) * time.Minute,
	})

	jobs := (len(msgs) + cfg.JobMessages - 1) / cfg.JobMessages
	for bi := 0; bi < jobs; bi++ {
		lo := bi * cfg.JobMessages
		hi := lo + cfg.JobMessages
		if hi > len(msgs) {
			hi = len(msgs)
		}
		batch := msgs[lo:hi]

		outFile := filepath.Join(cfg.OutputDir, fmt.Sprintf("chunks_%03d.json", bi+1))
		if !cfg.Overwrite && fileutils.FileExists(outFile) {
			log.Info("skip job: output already exists", "out", outFile)
			continue
		}

		reqs := pipeline.BuildSegmentRequests(batch, cfg.Model, segmentSystemPrompt, cfg.RequestBatchSize)
		jsonl, err := pipeline.EncodeJSONL(reqs)
		if err != nil {
			return err
		}
		if n := pipeline.ValidateJSONL(jsonl); n > 0 {
			return fmt.Errorf("job %d: %d invalid JSONL lines", bi+1, n)
		}

		tag := fmt.Sprintf("segment_%03d", bi+1)
		log.Info("submitting segmentation job", "tag", tag, "messages", len(batch), "requests", len(reqs))
		jobID, out, err := runner.Run(ctx, jsonl, tag)
		if err != nil {
			return err
		}

		results := pipeline.ParseSegmentOutput(out)
		index := pipeline.MessageIndex(batch)
		var chunks []pipeline.Chunk
		for _, res := range results {
			chunks = append(chunks, pipeline.ReconcileGroups(jobID+"_"+res.CustomID, res.Groups, index)...)
		}
		log.Info("reconciled job output", "job", jobID, "results", len(results), "chunks", len(chunks))

		chunks = pipeline.AssembleChunks(ctx, chunks, pipeline.AssembleOptions{
			Authors:          authors,
			Summarizer:       summarizer,
			SummaryThreshold: cfg.SummaryThreshold,
		})

		if err := fileutils.WriteJSONFileAtomic(outFile, chunks, cfg.Pretty); err != nil {
			return err
		}
		log.Info("wrote chunks", "out", outFile, "chunks", len(chunks))
	}
	return nil
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.InputFile, "in", cfg.InputFile, "Path to the filtered message list produced by export-filter")
	fs.StringVar(&cfg.AuthorsFile, "authors", cfg.AuthorsFile, "Path to the author lookup produced by export-filter")
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Directory to write chunk JSON files into")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "Segmentation mode: heuristic|batch")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "OpenAI model for batch segmentation and topic summaries")

	fs.IntVar(&cfg.MaxGapSeconds, "max-gap", cfg.MaxGapSeconds, "Heuristic mode: max silence between messages in one chunk, in seconds")
	fs.IntVar(&cfg.TokenBudget, "token-budget", cfg.TokenBudget, "Heuristic mode: max tokens per chunk")

	fs.IntVar(&cfg.JobMessages, "job-messages", cfg.JobMessages, "Batch mode: messages per submitted job")
	fs.IntVar(&cfg.RequestBatchSize, "request-batch", cfg.RequestBatchSize, "Batch mode: messages per request line within a job")
	fs.IntVar(&cfg.PollSeconds, "poll", cfg.PollSeconds, "Batch mode: poll interval in seconds")
	fs.IntVar(&cfg.MaxWaitMinutes, "max-wait", cfg.MaxWaitMinutes, "Batch mode: max minutes to wait per job (0 = wait until terminal)")

	fs.IntVar(&cfg.SummaryThreshold, "summary-threshold", cfg.SummaryThreshold, "Chunks with at most this many messages get a placeholder topic instead of a summary")
	fs.BoolVar(&cfg.NoSummaries, "no-summaries", false, "Skip topic summarization entirely")

	fs.BoolVar(&cfg.Pretty, "pretty", false, "Pretty-print output JSON")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Overwrite existing chunk files")
	fs.StringVar(&cfg.APIKey, "api-key", "", "OpenAI API key (overrides OPENAI_API_KEY env var)")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExample:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/chunker -in data/filtered_messages.json -out data/chunks -mode batch -model gpt-4o-mini")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.InputFile = filepath.Clean(cfg.InputFile)
	cfg.AuthorsFile = filepath.Clean(cfg.AuthorsFile)
	cfg.OutputDir = filepath.Clean(cfg.OutputDir)
	return cfg, nil
}
