package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/Rrens/auditlens/internal/config"
	"github.com/Rrens/auditlens/internal/domain"
	"github.com/Rrens/auditlens/internal/llm"
	"github.com/Rrens/auditlens/internal/llm/gemini"
	"github.com/Rrens/auditlens/internal/logger"
	"github.com/Rrens/auditlens/internal/repository"
	"github.com/Rrens/auditlens/internal/service"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

type fileList []string

func (f *fileList) String() string { return strings.Join(*f, ",") }

func (f *fileList) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func main() {
	var files fileList
	flag.Var(&files, "file", "audit report to attach (repeatable)")
	prompt := flag.String("prompt", llm.PrimingQuestion, "question to ask about the report")
	priming := flag.Bool("priming", false, "seed the chat with the example priority summary exchange")
	sessionID := flag.String("session", "", "persist the exchange under this session id")
	flag.Parse()

	_ = godotenv.Load()

	if err := run(files, *prompt, *priming, *sessionID); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func run(files []string, prompt string, priming bool, sessionID string) error {
	if len(files) == 0 {
		return errors.New("at least one -file is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	_, closer, err := logger.Setup(cfg.Logging)
	if err != nil {
		color.Yellow("Logging to file disabled: %v", err)
	} else {
		defer closer.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := gemini.NewProvider(ctx, cfg.Gemini)
	if err != nil {
		return err
	}
	defer provider.Close()
	if !provider.IsConfigured() {
		return errors.New("GEMINI_API_KEY is not set")
	}

	var history *service.HistoryStore
	transcript := domain.Transcript{}
	if sessionID != "" {
		backend, err := repository.Open(ctx, cfg.History)
		if err != nil {
			return err
		}
		defer backend.Close()
		history = service.NewHistoryStore(backend.Repo)
		if transcript, err = history.Load(ctx, sessionID); err != nil {
			return err
		}
	}

	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)

	ingest := service.NewIngestService(provider)
	refs := make([]domain.DocumentRef, 0, len(files))
	for _, path := range files {
		ref, err := ingest.Upload(ctx, path, mimeTypeFor(path))
		if err != nil {
			return err
		}
		cyan.Printf("Uploaded file '%s' as: %s\n", ref.DisplayName, ref.URI)
		refs = append(refs, ref)
	}

	fmt.Print("Waiting for file processing...")
	stopDots := printDots()
	active, err := service.NewPoller(provider, cfg.Activation).AwaitActive(ctx, refs)
	stopDots()
	if err != nil {
		fmt.Println()
		return err
	}
	green.Println("...all files ready")

	conversations := service.NewConversationService(provider)
	sess := conversations.Start(sessionID, llm.SeedTranscript(transcript, priming))

	reply, err := conversations.Send(ctx, sess, prompt, active)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(reply)

	if history != nil {
		if err := history.Append(ctx, sessionID, prompt, reply); err != nil {
			color.Yellow("Warning: reply not saved: %v", err)
			return nil
		}
		green.Printf("Saved to session %s\n", sessionID)
	}
	return nil
}

func mimeTypeFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		return domain.MIMETypePlainText
	}
	return domain.MIMETypePDF
}

// printDots writes a progress dot every second until the returned func is called
func printDots() func() {
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fmt.Print(".")
			}
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}
