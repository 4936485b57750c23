package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/quizsmith/internal/export"
	"github.com/pavelanni/quizsmith/internal/genai"
	"github.com/pavelanni/quizsmith/internal/handler"
	appI18n "github.com/pavelanni/quizsmith/internal/i18n"
	"github.com/pavelanni/quizsmith/internal/model"
	"github.com/pavelanni/quizsmith/internal/normalize"
	"github.com/pavelanni/quizsmith/internal/store"
	"github.com/pavelanni/quizsmith/internal/template"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "quizsmith",
		Short: "Assessment generator and multi-format exporter",
	}
	root.AddCommand(serveCmd(), generateCmd(), exportCmd(), importCmd())
	return root
}

func addCommonFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("db", "quizsmith.db", "SQLite database path")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP export server",
		RunE:  runServe,
	}
	addCommonFlags(cmd)
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringP("lang", "l", "en", "Language for exported document labels (en, ru); printable output renders Latin-script labels only")
	return cmd
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate assessment questions with an LLM",
		RunE:  runGenerate,
	}
	addCommonFlags(cmd)
	f := cmd.Flags()
	f.StringP("topic", "t", "", "Topic to generate questions about (required)")
	f.String("title", "", "Assessment title (defaults to the topic)")
	f.IntP("num-questions", "n", 10, "Number of questions to generate")
	f.StringP("grade", "g", "", "Target grade level")
	f.StringSlice("kinds", nil, "Question types to request (repeatable)")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export an assessment in a chosen format",
		Long: "Export an assessment. Formats: " + strings.Join(export.Formats(), ", ") +
			", or 'template' for the portable JSON template.",
		RunE: runExport,
	}
	addCommonFlags(cmd)
	f := cmd.Flags()
	f.Int64("assessment", 0, "Assessment id (required)")
	f.StringP("format", "f", "csv", "Export format")
	f.StringP("lang", "l", "en", "Language for exported document labels (en, ru); printable output renders Latin-script labels only")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	_ = cmd.MarkFlagRequired("assessment")
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import an assessment from a template JSON file",
		RunE:  runImport,
	}
	addCommonFlags(cmd)
	f := cmd.Flags()
	f.String("file", "", "Template JSON path (required)")
	f.String("title", "", "Override the template's title")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("QUIZSMITH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("quizsmith")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/quizsmith")
	v.AddConfigPath("/etc/quizsmith")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := appI18n.Init(v.GetString("lang")); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	h := handler.New(db)
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server", "addr", addr, "lang", v.GetString("lang"))
	return http.ListenAndServe(addr, r)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	client := genai.New(v.GetString("llm-url"), v.GetString("llm-key"), v.GetString("llm-model"))
	if err := client.Ping(cmd.Context()); err != nil {
		return fmt.Errorf("LLM health check: %w", err)
	}

	raws, err := client.GenerateQuestions(cmd.Context(), genai.Request{
		Topic:        v.GetString("topic"),
		GradeLevel:   v.GetString("grade"),
		NumQuestions: v.GetInt("num-questions"),
		Kinds:        v.GetStringSlice("kinds"),
	})
	if err != nil {
		return fmt.Errorf("generate questions: %w", err)
	}

	title := v.GetString("title")
	if title == "" {
		title = v.GetString("topic")
	}
	id, err := db.CreateAssessment(model.Assessment{
		Title:      title,
		GradeLevel: v.GetString("grade"),
	})
	if err != nil {
		return fmt.Errorf("create assessment: %w", err)
	}
	for i, raw := range raws {
		if _, err := db.InsertQuestionRaw(id, i, raw); err != nil {
			return fmt.Errorf("store question %d: %w", i+1, err)
		}
	}

	slog.Info("generated assessment", "id", id, "title", title, "questions", len(raws))
	return nil
}

func loadAssessment(db *store.Store, id int64) (model.Assessment, error) {
	a, err := db.GetAssessment(id)
	if err != nil {
		return a, fmt.Errorf("get assessment %d: %w", id, err)
	}
	raws, err := db.ListQuestionRaws(id)
	if err != nil {
		return a, fmt.Errorf("load questions: %w", err)
	}
	a.Questions = normalize.Records(raws)
	return a, nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := appI18n.Init(v.GetString("lang")); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	a, err := loadAssessment(db, v.GetInt64("assessment"))
	if err != nil {
		return err
	}

	format := v.GetString("format")
	var data []byte
	if format == "template" {
		data, err = template.Marshal(template.Export(a))
		if err != nil {
			return err
		}
	} else {
		res, err := export.Encode(format, a)
		if err != nil {
			return err
		}
		if res.Skipped > 0 {
			slog.Warn("format could not represent some questions",
				"format", format, "written", res.Rows, "skipped", res.Skipped)
		}
		data = res.Data
	}

	return writeOutput(v.GetString("output"), data)
}

func writeOutput(outPath string, data []byte) error {
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func runImport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	path := v.GetString("file")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	hash := sha256sum(data)
	storedHash, err := db.GetImportedFileHash(path)
	if err != nil {
		return fmt.Errorf("check import status for %s: %w", path, err)
	}
	if storedHash == hash {
		slog.Info("template file unchanged, skipping", "path", path)
		return nil
	}

	a, problems := template.Import(data, v.GetString("title"))
	if len(problems) > 0 {
		for _, p := range problems {
			slog.Error("template rejected", "reason", p)
		}
		return fmt.Errorf("template %s failed validation with %d problems", path, len(problems))
	}

	id, err := db.SaveAssessment(*a)
	if err != nil {
		return fmt.Errorf("save assessment: %w", err)
	}
	if err := db.SetImportedFileHash(path, hash); err != nil {
		return fmt.Errorf("record import for %s: %w", path, err)
	}

	slog.Info("imported assessment", "id", id, "title", a.Title, "questions", len(a.Questions))
	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
