package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"resumelens/internal/errors"
)

// maxPromptFileSize bounds prompt files at 1MB
const maxPromptFileSize = 1024 * 1024

// LoadedPrompts holds prompt content resolved from external files. Access is
// through the getters so the file watcher can swap content safely.
type LoadedPrompts struct {
	ScoreResume  string
	FormatJob    string
	TailorResume string
}

var (
	loadedPromptsMu sync.RWMutex
	loadedPrompts   LoadedPrompts
)

// GetLoadedPrompts returns a copy of the prompts loaded from files
func GetLoadedPrompts() LoadedPrompts {
	loadedPromptsMu.RLock()
	defer loadedPromptsMu.RUnlock()
	return loadedPrompts
}

func setLoadedPrompt(target func(*LoadedPrompts) *string, content string) {
	loadedPromptsMu.Lock()
	defer loadedPromptsMu.Unlock()
	*target(&loadedPrompts) = content
}

// promptFile binds a configured file path to its slot in LoadedPrompts
type promptFile struct {
	name string
	path string
	slot func(*LoadedPrompts) *string
}

func (c *Config) promptFiles() []promptFile {
	score := c.GetScoreConfig().CustomPrompts
	format := c.GetFormatJobConfig().CustomPrompts
	tailor := c.GetTailorConfig().CustomPrompts

	var files []promptFile
	if score.ScoreResumeFile != "" {
		files = append(files, promptFile{"scoreResume", score.ScoreResumeFile,
			func(p *LoadedPrompts) *string { return &p.ScoreResume }})
	}
	if format.FormatJobFile != "" {
		files = append(files, promptFile{"formatJob", format.FormatJobFile,
			func(p *LoadedPrompts) *string { return &p.FormatJob }})
	}
	if tailor.TailorResumeFile != "" {
		files = append(files, promptFile{"tailorResume", tailor.TailorResumeFile,
			func(p *LoadedPrompts) *string { return &p.TailorResume }})
	}
	return files
}

// loadPromptsFromFiles loads custom prompts from external files if file paths
// are specified. File content takes priority over inline config content.
func (c *Config) loadPromptsFromFiles() error {
	for _, pf := range c.promptFiles() {
		content, err := loadPromptFromFile(pf.path, pf.name)
		if err != nil {
			return err
		}
		setLoadedPrompt(pf.slot, content)
	}
	return nil
}

// loadPromptFromFile reads and validates a single prompt file
func loadPromptFromFile(path, name string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotFound,
			fmt.Sprintf("prompt file for %s not found: %s", name, path), err)
	}
	if info.Size() > maxPromptFileSize {
		return "", errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("prompt file for %s exceeds size limit: %s", name, path), nil)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("failed to read prompt file for %s: %s", name, path), err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("prompt file for %s is empty: %s", name, path), nil)
	}
	return trimmed, nil
}

// PromptWatcher reloads file-based prompts when they change on disk, so prompt
// tuning does not require a restart.
type PromptWatcher struct {
	watcher  *fsnotify.Watcher
	logger   *errors.Logger
	debounce time.Duration
	files    map[string]promptFile // absolute path -> binding
	done     chan struct{}
	wg       sync.WaitGroup
}

// StartPromptWatcher begins watching the configured prompt files. Returns nil
// when watching is disabled or no file prompts are configured.
func (c *Config) StartPromptWatcher(logger *errors.Logger) (*PromptWatcher, error) {
	if !c.AI.CustomPrompts.WatchFiles {
		return nil, nil
	}
	files := c.promptFiles()
	if len(files) == 0 {
		return nil, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to create prompt file watcher", err)
	}

	pw := &PromptWatcher{
		watcher:  watcher,
		logger:   logger,
		debounce: c.AI.CustomPrompts.WatchDebounce,
		files:    make(map[string]promptFile),
		done:     make(chan struct{}),
	}
	if pw.debounce <= 0 {
		pw.debounce = time.Second
	}

	// Watch parent directories; editors replace files rather than write in
	// place, which drops inode-level watches.
	dirs := make(map[string]bool)
	for _, pf := range files {
		abs, err := filepath.Abs(pf.path)
		if err != nil {
			watcher.Close()
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("failed to resolve prompt file path: %s", pf.path), err)
		}
		pw.files[abs] = pf
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
				fmt.Sprintf("failed to watch prompt directory: %s", dir), err)
		}
	}

	pw.wg.Add(1)
	go pw.run()

	logger.Info("Prompt file watcher started", "files", len(pw.files))
	return pw, nil
}

func (pw *PromptWatcher) run() {
	defer pw.wg.Done()

	var timer *time.Timer
	pending := make(map[string]bool)

	fire := func() {
		for path := range pending {
			pw.reload(path)
		}
		pending = make(map[string]bool)
	}

	for {
		var timerC <-chan time.Time
		if timer != nil {
			timerC = timer.C
		}

		select {
		case <-pw.done:
			return
		case <-timerC:
			timer = nil
			fire()
		case event, ok := <-pw.watcher.Events:
			if !ok {
				return
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, watched := pw.files[abs]; !watched {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending[abs] = true
			if timer == nil {
				timer = time.NewTimer(pw.debounce)
			} else {
				timer.Reset(pw.debounce)
			}
		case err, ok := <-pw.watcher.Errors:
			if !ok {
				return
			}
			pw.logger.Warn("Prompt file watcher error", "error", err)
		}
	}
}

// reload re-reads one prompt file and swaps the loaded content. A file that
// is momentarily missing or invalid keeps the previously loaded content.
func (pw *PromptWatcher) reload(path string) {
	pf := pw.files[path]
	content, err := loadPromptFromFile(path, pf.name)
	if err != nil {
		pw.logger.Warn("Keeping previous prompt after failed reload",
			"prompt", pf.name, "file", path, "error", err)
		return
	}
	setLoadedPrompt(pf.slot, content)
	pw.logger.Info("Reloaded prompt from file", "prompt", pf.name, "file", path)
}

// Close stops the watcher and waits for the event loop to exit
func (pw *PromptWatcher) Close() error {
	if pw == nil {
		return nil
	}
	close(pw.done)
	err := pw.watcher.Close()
	pw.wg.Wait()
	return err
}
