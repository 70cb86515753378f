// pitchlab-ingest seeds a PitchLab database with roleplay scenarios and
// knowledge base documents. Scenarios come from a YAML file; documents are
// plain text or markdown files that get chunked and embedded.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pitchlab/pitchlab/internal/core/domain"
	"github.com/pitchlab/pitchlab/internal/core/secrets"
	"github.com/pitchlab/pitchlab/internal/shell/llm"
	"github.com/pitchlab/pitchlab/internal/shell/retrieval"
	"github.com/pitchlab/pitchlab/internal/shell/store"
)

const (
	exitSuccess = 0
	exitUsage   = 1
	exitError   = 2
)

// scenarioSpec mirrors one entry of the scenarios YAML file.
type scenarioSpec struct {
	Name         string `yaml:"name"`
	Kind         string `yaml:"kind"`
	PersonaName  string `yaml:"persona_name"`
	Persona      string `yaml:"persona"`
	EasyPrompt   string `yaml:"easy_prompt"`
	MediumPrompt string `yaml:"medium_prompt"`
	HardPrompt   string `yaml:"hard_prompt"`
	ImageURL     string `yaml:"image_url"`
	VoiceID      string `yaml:"voice_id"`
}

func main() {
	os.Exit(run())
}

func run() int {
	dsn := flag.String("db", "./data/pitchlab.db", "Path to the SQLite database")
	scenariosPath := flag.String("scenarios", "", "YAML file with scenarios to load")
	docsPath := flag.String("docs", "", "Text/markdown file or directory to ingest into the knowledge base")
	apiKey := flag.String("api-key", "", "OpenAI API key (for -docs; falls back to OPENAI_API_KEY / OPENAI_API_KEY_FILE)")
	baseURL := flag.String("base-url", "", "OpenAI-compatible base URL")
	embeddingModel := flag.String("embedding-model", llm.DefaultEmbeddingModel, "Embedding model for document ingestion")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *scenariosPath == "" && *docsPath == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: pass -scenarios and/or -docs")
		flag.Usage()
		return exitUsage
	}

	st, err := store.NewSQLiteStore(*dsn)
	if err != nil {
		logger.Error("failed to open database", "dsn", *dsn, "error", err)
		return exitError
	}
	defer st.Close()

	ctx := context.Background()

	if *scenariosPath != "" {
		n, err := loadScenarios(ctx, st, *scenariosPath)
		if err != nil {
			logger.Error("failed to load scenarios", "path", *scenariosPath, "error", err)
			return exitError
		}
		logger.Info("scenarios loaded", "path", *scenariosPath, "count", n)
	}

	if *docsPath != "" {
		key, err := secrets.Resolve(*apiKey, "")
		if err != nil {
			key, err = secrets.Resolve(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_API_KEY_FILE"))
		}
		if err != nil {
			logger.Error("no API key for document ingestion", "error", err)
			return exitUsage
		}

		embedder := llm.NewEmbedder(key, *baseURL, *embeddingModel)
		index := retrieval.NewIndex(st, embedder, 0, 0)

		n, err := ingestDocs(ctx, index, *docsPath, logger)
		if err != nil {
			logger.Error("failed to ingest documents", "path", *docsPath, "error", err)
			return exitError
		}
		logger.Info("documents ingested", "path", *docsPath, "count", n)
	}

	return exitSuccess
}

// loadScenarios reads the YAML file and stores every scenario in it.
func loadScenarios(ctx context.Context, st store.Store, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var specs []scenarioSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}

	count := 0
	for _, spec := range specs {
		scenario, err := domain.NewScenario(spec.Name, domain.Kind(spec.Kind))
		if err != nil {
			return count, fmt.Errorf("scenario %q: %w", spec.Name, err)
		}
		scenario.PersonaName = spec.PersonaName
		scenario.Persona = spec.Persona
		scenario.EasyPrompt = spec.EasyPrompt
		scenario.MediumPrompt = spec.MediumPrompt
		scenario.HardPrompt = spec.HardPrompt
		scenario.ImageURL = spec.ImageURL
		scenario.VoiceID = spec.VoiceID

		if errs := scenario.Validate(); len(errs) > 0 {
			return count, fmt.Errorf("scenario %q: %w", spec.Name, errs[0])
		}
		if err := st.CreateScenario(ctx, scenario); err != nil {
			return count, fmt.Errorf("scenario %q: %w", spec.Name, err)
		}
		count++
	}

	return count, nil
}

// ingestDocs chunks and embeds every .txt/.md file under path.
func ingestDocs(ctx context.Context, index *retrieval.Index, path string, logger *slog.Logger) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}

	var files []string
	if info.IsDir() {
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(p)) {
			case ".txt", ".md":
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return 0, err
		}
	} else {
		files = []string{path}
	}

	count := 0
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return count, err
		}

		name := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		doc, err := index.Ingest(ctx, name, f, string(data))
		if err != nil {
			return count, fmt.Errorf("ingest %s: %w", f, err)
		}
		logger.Info("document ingested", "name", doc.Name, "chunks", doc.ChunkCount)
		count++
	}

	return count, nil
}
