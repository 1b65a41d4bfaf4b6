package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"jhove2/internal/aggrefier"
	"jhove2/internal/config"
	"jhove2/internal/format"
	"jhove2/internal/framework"
	"jhove2/internal/message"
	"jhove2/internal/modules/digest"
	"jhove2/internal/store"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckReadableFile verifies that path is a regular file the process can read.
func CheckReadableFile(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if !info.Mode().IsRegular() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a regular file)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckDigests verifies that every configured digest algorithm is available.
func CheckDigests(algorithms []string) Result {
	const name = "Digest algorithms"

	d, err := digest.New(algorithms)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: strings.Join(d.Algorithms(), ", ")}
}

// CheckMessageCatalog verifies that the configured catalog loads and
// carries the configured locale.
func CheckMessageCatalog(cfg *config.Config) Result {
	const name = "Message catalog"

	if r := CheckReadableFile(name, cfg.Framework.MessageCatalog); !r.Passed {
		return r
	}
	resolver, err := framework.ResolverFromConfig(cfg)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	detail := cfg.Framework.MessageCatalog
	if catalog, ok := resolver.(*message.Catalog); ok {
		detail = fmt.Sprintf("%s (%d codes, locales %s)", detail,
			len(catalog.Codes()), strings.Join(catalog.Locales(), ", "))
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckRules verifies that the clump rules file parses and every rule
// compiles against the bundled format registry.
func CheckRules(path string) Result {
	const name = "Clump rules"

	if r := CheckReadableFile(name, path); !r.Passed {
		return r
	}
	rules, err := aggrefier.ReadRules(path)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	if _, err := aggrefier.NewGlobRecognizer("preflight", rules, format.DefaultRegistry()); err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d rules)", path, len(rules))}
}

// CheckStore verifies that the run database opens with the expected schema.
func CheckStore(ctx context.Context, cfg *config.Config) Result {
	const name = "Run store"

	s, err := store.Open(cfg)
	if err != nil {
		if errors.Is(err, store.ErrSchemaMismatch) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: schema mismatch, clear the run history)", cfg.StorePath())}
		}
		return Result{Name: name, Detail: summarizeError(err)}
	}
	defer s.Close()
	runs, err := s.List(ctx, 0)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d runs)", s.Path(), len(runs))}
}

// summarizeError keeps only the first line of err for table display.
func summarizeError(err error) string {
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return msg
}
