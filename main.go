package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Yeseung0610/docs-fairy/api"
	"github.com/Yeseung0610/docs-fairy/chat"
	"github.com/Yeseung0610/docs-fairy/config"
	"github.com/Yeseung0610/docs-fairy/database"
	"github.com/Yeseung0610/docs-fairy/docs"
	"github.com/Yeseung0610/docs-fairy/ingestion"
	"github.com/Yeseung0610/docs-fairy/llm"
	"github.com/Yeseung0610/docs-fairy/session"
	"github.com/Yeseung0610/docs-fairy/store"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	switch os.Args[1] {
	case "serve":
		serveCmd(cfg, logger, os.Args[2:])
	case "chat":
		chatCmd(cfg, logger, os.Args[2:])
	case "ingest":
		ingestCmd(cfg, logger, os.Args[2:])
	case "clear":
		clearCmd(cfg, logger, os.Args[2:])
	default:
		logger.Printf("unknown command: %s", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func serveCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := flags.String("addr", cfg.HTTPAddr, "listen address for the web UI and API")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse serve flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := database.RunMigrations(cfg.DatabaseURL, logger); err != nil {
		logger.Fatalf("migrations: %v", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pool.Close()

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		logger.Fatalf("llm setup: %v", err)
	}

	st := store.New(pool)
	converter := ingestion.NewNotesConverter(llmClient, logger)
	docsMgr := docs.NewManager(st, converter, logger)
	chatMgr := chat.NewManager(st, llmClient, logger)
	server := api.New(docsMgr, chatMgr, session.NewRegistry(), logger)

	httpServer := &http.Server{Addr: *addr, Handler: server.Handler()}
	go func() {
		logger.Printf("listening on %s", *addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("shutdown: %v", err)
	}
}

func chatCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("chat", flag.ExitOnError)
	message := flags.String("message", "", "message to send to the assistant")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse chat flags: %v", err)
	}

	if strings.TrimSpace(*message) == "" {
		fmt.Print("메시지를 입력하세요: ")
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			*message = scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			logger.Fatalf("read message: %v", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := database.RunMigrations(cfg.DatabaseURL, logger); err != nil {
		logger.Fatalf("migrations: %v", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pool.Close()

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		logger.Fatalf("llm setup: %v", err)
	}

	mgr := chat.NewManager(store.New(pool), llmClient, logger)
	sess := session.NewState()
	if err := mgr.EnsureLoaded(ctx, sess); err != nil {
		logger.Fatalf("load chats: %v", err)
	}

	_, active := mgr.Tabs(sess)
	turn, err := mgr.SendMessage(ctx, sess, active, *message)
	if err != nil {
		logger.Fatalf("send message: %v", err)
	}

	fmt.Println(turn.Answer)
	if len(turn.References) > 0 {
		fmt.Println()
		fmt.Println("참조 문서:")
		for idx, ref := range turn.References {
			fmt.Printf("%d. %s (page://%d)\n", idx+1, ref.Title, ref.PageID)
		}
	}
}

func ingestCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("ingest", flag.ExitOnError)
	file := flags.String("file", "", "path to the PDF file")
	folderID := flags.Int64("folder", 0, "id of the folder to add the page to")
	pageName := flags.String("name", "", "name of the new page")
	docType := flags.String("type", ingestion.DocTypeMeetingNotes, "document type: 문서 or 회의록")
	date := flags.String("date", "", "page date (ISO format)")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse ingest flags: %v", err)
	}

	if *file == "" || *folderID == 0 || *pageName == "" {
		logger.Fatalf("ingest requires --file, --folder, and --name")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		logger.Fatalf("read pdf: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := database.RunMigrations(cfg.DatabaseURL, logger); err != nil {
		logger.Fatalf("migrations: %v", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pool.Close()

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		logger.Fatalf("llm setup: %v", err)
	}

	mgr := docs.NewManager(store.New(pool), ingestion.NewNotesConverter(llmClient, logger), logger)
	id, err := mgr.IngestPDF(ctx, data, *folderID, *pageName, *docType, *date)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	logger.Printf("created page %d from %s", id, *file)
}

func clearCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("clear", flag.ExitOnError)
	confirmed := flags.Bool("confirm", false, "skip confirmation prompt")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse clear flags: %v", err)
	}

	if !*confirmed {
		fmt.Print("This will permanently delete all folders, pages, and chats. Continue? [y/N]: ")
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				logger.Fatalf("read confirmation: %v", err)
			}
			logger.Println("clear aborted")
			return
		}
		answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if answer != "y" && answer != "yes" {
			logger.Println("clear aborted")
			return
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pool.Close()

	if err := store.New(pool).ClearAll(ctx); err != nil {
		logger.Fatalf("clear data: %v", err)
	}
	logger.Println("all folders, pages, and chats removed")
}

func printUsage() {
	fmt.Println("Usage: docs-fairy <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  serve    Start the web UI and HTTP API")
	fmt.Println("  chat     Send one message to the assistant from the terminal")
	fmt.Println("  ingest   Convert a PDF into a new page (use --file, --folder, --name)")
	fmt.Println("  clear    Remove all stored folders, pages, and chats")
}
