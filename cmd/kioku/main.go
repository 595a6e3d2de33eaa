package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/moriyama/kioku/pkg/config"
	"github.com/moriyama/kioku/pkg/importer"
	"github.com/moriyama/kioku/pkg/review"
	"github.com/moriyama/kioku/pkg/speech"
	"github.com/moriyama/kioku/pkg/stats"
	"github.com/moriyama/kioku/pkg/store"
	"github.com/moriyama/kioku/pkg/wordbook"

	_ "github.com/mattn/go-sqlite3"
)

func main() {
	dbFlag := flag.String("db", "", "Path to SQLite database (overrides KIOKU_DB_PATH)")
	importFlag := flag.String("import", "", "CSV file to import as a new wordbook")
	urlFlag := flag.String("url", "", "Web article to import as a new wordbook")
	nameFlag := flag.String("name", "", "Name for the imported wordbook")
	reviewFlag := flag.Bool("review", false, "Start a review session on the active wordbook")
	filterFlag := flag.String("filter", "", "Restrict review to one status: unknown, fuzzy or known")
	shuffleFlag := flag.Bool("shuffle", false, "Shuffle the deck instead of ordering by priority")
	statsFlag := flag.Bool("stats", false, "Show learning statistics")
	daysFlag := flag.Int("days", 7, "Days of history to show with -stats")
	booksFlag := flag.Bool("books", false, "List wordbooks")
	switchFlag := flag.String("switch", "", "Make the wordbook with this id active")
	deleteFlag := flag.String("delete", "", "Delete the wordbook with this id")
	exportFlag := flag.String("export", "", "Export a wordbook as CSV to stdout (id or \"active\")")
	backupFlag := flag.String("backup", "", "Write all data as JSON to this file")
	restoreFlag := flag.String("restore", "", "Replace all data from a JSON backup file")
	resetFlag := flag.Bool("reset-stats", false, "Clear all learning progress and statistics")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger, err := newLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	dbPath := cfg.Database.Path
	if *dbFlag != "" {
		dbPath = *dbFlag
	}
	st, err := store.Open(dbPath, logger)
	if err != nil {
		logger.Fatal("open store", zap.String("path", dbPath), zap.Error(err))
	}
	defer st.Close()

	manager, err := wordbook.NewManager(st, wordbook.NewHTTPFetcher(), wordbook.Limits{
		MaxWordbooks:    cfg.Review.MaxWordbooks,
		MaxWordsPerBook: cfg.Review.MaxWordsPerBook,
	}, logger)
	if err != nil {
		logger.Fatal("load wordbooks", zap.Error(err))
	}
	agg := stats.New(st, logger)
	player := speech.NewPlayer(cfg.Speech.Command, logger)

	switch {
	case *restoreFlag != "":
		data, err := os.ReadFile(*restoreFlag)
		if err != nil {
			logger.Fatal("read backup", zap.Error(err))
		}
		if err := st.ImportJSON(data); err != nil {
			logger.Fatal("restore backup", zap.Error(err))
		}
		fmt.Printf("Restored data from %s\n", *restoreFlag)

	case *backupFlag != "":
		data, err := st.ExportJSON()
		if err != nil {
			logger.Fatal("export data", zap.Error(err))
		}
		if err := os.WriteFile(*backupFlag, data, 0o644); err != nil {
			logger.Fatal("write backup", zap.Error(err))
		}
		fmt.Printf("Backup written to %s\n", *backupFlag)

	case *resetFlag:
		manager.ClearAllStats()
		agg.Clear()
		fmt.Println("All learning progress cleared.")

	case *importFlag != "":
		if err := importCSV(manager, *importFlag, *nameFlag); err != nil {
			logger.Fatal("import csv", zap.Error(err))
		}

	case *urlFlag != "":
		if err := importURL(ctx, manager, *urlFlag, *nameFlag); err != nil {
			logger.Fatal("import url", zap.Error(err))
		}

	case *booksFlag:
		listBooks(manager)

	case *switchFlag != "":
		if err := manager.Switch(ctx, *switchFlag); err != nil {
			logger.Fatal("switch wordbook", zap.Error(err))
		}
		fmt.Printf("Active wordbook: %s\n", manager.Active().Name)

	case *deleteFlag != "":
		if err := manager.Delete(*deleteFlag); err != nil {
			logger.Fatal("delete wordbook", zap.Error(err))
		}
		fmt.Println("Wordbook deleted.")

	case *exportFlag != "":
		id := *exportFlag
		if id == "active" {
			id = manager.ActiveID()
		}
		csvText, err := manager.ExportCSV(id)
		if err != nil {
			logger.Fatal("export wordbook", zap.Error(err))
		}
		fmt.Print(csvText)

	case *statsFlag:
		showStats(agg, *daysFlag)

	case *reviewFlag:
		if err := runReview(ctx, st, manager, agg, player, *filterFlag, *shuffleFlag); err != nil {
			logger.Fatal("review session", zap.Error(err))
		}

	default:
		flag.Usage()
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = lvl
	// Keep stdout clean for the interactive loop and CSV output.
	zcfg.OutputPaths = []string{"stderr"}
	return zcfg.Build()
}

func importCSV(manager *wordbook.Manager, path, name string) error {
	words, err := importer.ReadCSVFile(path)
	if err != nil {
		return err
	}
	if analyzer, err := importer.NewAnalyzer(); err == nil {
		words = analyzer.AnnotateReadings(words)
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	book, err := manager.Create(name, words)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d words into %q (%s)\n", len(words), book.Name, book.ID)
	return nil
}

func importURL(ctx context.Context, manager *wordbook.Manager, rawURL, name string) error {
	analyzer, err := importer.NewAnalyzer()
	if err != nil {
		return err
	}
	fmt.Printf("Fetching %s...\n", rawURL)
	title, words, err := analyzer.WordsFromURL(ctx, rawURL)
	if err != nil {
		return err
	}
	if name == "" {
		name = title
	}
	book, err := manager.Create(name, words)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d words from %q into %q (%s)\n", len(words), title, book.Name, book.ID)
	return nil
}

func listBooks(manager *wordbook.Manager) {
	activeID := manager.ActiveID()
	for _, b := range manager.List() {
		marker := " "
		if b.ID == activeID {
			marker = "*"
		}
		fmt.Printf("%s %s  %-20s %4d words  (known %d, fuzzy %d, new %d)\n",
			marker, b.ID, b.Name, b.Stats.Total, b.Stats.Known, b.Stats.Fuzzy, b.Stats.NotReviewed)
	}
}

func showStats(agg *stats.Aggregator, days int) {
	today := agg.TodayStats()
	fmt.Printf("Today: %d words in %d sessions (%s)\n",
		today.Words, today.Sessions, stats.FormatDuration(today.Time))

	fmt.Printf("\nLast %d days:\n", days)
	for _, day := range agg.RecentStats(days) {
		fmt.Printf("  %s  %3d words  %2d sessions  %s\n",
			day.Date, day.Stats.Words, day.Stats.Sessions, stats.FormatDuration(day.Stats.Time))
	}

	avg := agg.AverageDaily()
	totals := agg.Statistics()
	fmt.Printf("\nAll time: %d words, %d sessions, %s\n",
		totals.TotalWordsReviewed, totals.TotalSessions, stats.FormatDuration(totals.TotalStudyTime))
	fmt.Printf("Per active day: %d words, %d sessions, %s\n",
		avg.Words, avg.Sessions, stats.FormatDuration(avg.Time))
}

func runReview(ctx context.Context, st *store.Store, manager *wordbook.Manager,
	agg *stats.Aggregator, player *speech.Player, filter string, shuffle bool) error {

	book := manager.Active()
	if book == nil {
		return fmt.Errorf("no active wordbook")
	}
	// External books may need their words fetched first.
	if len(book.Words) == 0 && book.Kind == wordbook.KindExternal {
		if err := manager.Switch(ctx, book.ID); err != nil {
			return err
		}
		book = manager.Active()
	}
	if len(book.Words) == 0 {
		return fmt.Errorf("wordbook %q has no words", book.Name)
	}

	statuses := st.BookStatuses(book.ID)
	words := book.Words
	if filter != "" {
		status, err := review.ParseStatus(filter)
		if err != nil {
			return err
		}
		words = review.FilterByStatus(words, statuses, status)
		if len(words) == 0 {
			fmt.Printf("No %s words in %q.\n", filter, book.Name)
			return nil
		}
	}
	if shuffle {
		words = review.Shuffle(words)
	} else {
		scored := review.Prioritize(words, statuses, time.Now())
		words = make([]review.Word, len(scored))
		for i, sw := range scored {
			words[i] = sw.Word
		}
	}

	session := review.NewSession(words, st.Recorder(book.ID))
	agg.StartSession()

	fmt.Printf("Reviewing %q: %d words\n", book.Name, len(words))
	fmt.Println("Keys: k known, f fuzzy, u unknown, n next, p prev, z undo, s speak, q quit")

	scanner := bufio.NewScanner(os.Stdin)
	for !session.IsComplete() {
		select {
		case <-ctx.Done():
			return finishReview(manager, agg, book.ID)
		default:
		}

		word, _ := session.CurrentWord()
		printCard(session, word)

		if !scanner.Scan() {
			break
		}
		switch strings.TrimSpace(strings.ToLower(scanner.Text())) {
		case "k":
			session.MarkStatus(review.Known)
			agg.RecordWordReview(review.Known)
		case "f":
			session.MarkStatus(review.Fuzzy)
			agg.RecordWordReview(review.Fuzzy)
		case "u":
			session.MarkStatus(review.Unknown)
			agg.RecordWordReview(review.Unknown)
		case "n":
			session.Next()
		case "p":
			session.Prev()
		case "z":
			session.Undo()
		case "s":
			if err := player.Speak(ctx, word.Word); err != nil && err != speech.ErrUnsupported {
				fmt.Printf("(speech failed: %v)\n", err)
			}
		case "q":
			return finishReview(manager, agg, book.ID)
		}
	}
	return finishReview(manager, agg, book.ID)
}

func printCard(session *review.Session, word review.Word) {
	s := session.Stats()
	fmt.Printf("\n[%d/%d] %s", session.Index()+1, s.Total, word.Word)
	if word.Phonetic != "" {
		fmt.Printf(" (%s)", word.Phonetic)
	}
	fmt.Println()
	if word.Translation != "" {
		fmt.Printf("    %s\n", word.Translation)
	}
	if word.Example != "" {
		fmt.Printf("    %s\n", word.Example)
	}
	fmt.Print("> ")
}

func finishReview(manager *wordbook.Manager, agg *stats.Aggregator, bookID string) error {
	summary, ok := agg.EndSession()
	if err := manager.RefreshStats(bookID); err != nil {
		return err
	}
	if ok {
		fmt.Printf("\nSession done: %d reviewed (known %d, fuzzy %d, unknown %d) in %s\n",
			summary.WordsReviewed, summary.KnownCount, summary.FuzzyCount,
			summary.UnknownCount, stats.FormatDuration(summary.Duration))
	}
	return nil
}
