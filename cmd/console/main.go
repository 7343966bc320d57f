// Command console is an interactive terminal client for the conversation
// pipeline, useful for trying prompts without running the HTTP server.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/argus/argus-backend/internal/augment"
	"github.com/argus/argus-backend/internal/config"
	"github.com/argus/argus-backend/internal/engine"
	"github.com/argus/argus-backend/internal/providers/openai"
	"github.com/argus/argus-backend/internal/ratelimit"
	"github.com/argus/argus-backend/internal/safety"
	"github.com/argus/argus-backend/internal/tools"
)

const consoleClient = "console"

func main() {
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	provider, err := openai.NewProvider(cfg.Provider)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize model provider")
	}

	gate := safety.NewGate()
	career := &tools.CareerIndex{Files: cfg.Engine.CareerFiles, Dirs: cfg.Engine.CareerDirs}
	fetcher := &tools.WebFetcher{}

	aug := &augment.Augmenter{
		Career:        career,
		Repo:          func() string { return tools.RepoContext(cfg.Engine.RepoRoot) },
		AnalyzeCSV:    tools.AnalyzeCSV,
		AnalyzePDF:    tools.AnalyzePDF,
		FetchURL:      fetcher.PageText,
		Calculate:     tools.Calculate,
		Presence:      tools.OperationalPresence,
		Risk:          gate.Risk,
		UploadsDir:    cfg.Engine.UploadsDir,
		MaxInputChars: cfg.Engine.MaxInputChars,
		Log:           log,
	}

	limiter := ratelimit.NewLimiter(ratelimit.DefaultConfig())

	opts := engine.DefaultOptions()
	opts.SystemPrompt = "You are Argus, a technical analysis assistant."
	opts.Model = cfg.Provider.Model
	opts.HistoryThreshold = cfg.Engine.HistoryThreshold
	opts.KeepRecent = cfg.Engine.KeepRecent

	eng := engine.New(provider, limiter, gate, aug, nil, log, opts)

	fmt.Println("Argus console. Type a message, 'reset' to clear history, 'quit' to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "quit", "exit":
			return
		case "reset":
			eng.Reset(consoleClient)
			fmt.Println("[history cleared]")
			continue
		}

		for frag := range eng.HandleMessage(context.Background(), consoleClient, line) {
			fmt.Print(frag)
		}
		fmt.Println()
	}
}
