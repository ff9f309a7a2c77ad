// Package emit writes implementor fragment scripts into a documentation tree
// from a YAML manifest handed off by an upstream generator.
package emit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"impdex/fragment"
	"impdex/state"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("emit")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no manifest has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	log.Info("Emitting starting", zap.String("manifest", src), zap.String("tree", dst))
	defer func(start time.Time) {
		log.Info("Emitting completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// process handles the core emitting logic independently of CLI framework.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("unable to read manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return err
	}
	frags, err := m.Fragments()
	if err != nil {
		return err
	}
	if frags.Len() == 0 {
		log.Debug("Nothing to emit", zap.String("manifest", src))
		return nil
	}

	fi, err := os.Stat(dst)
	if err != nil {
		return fmt.Errorf("destination tree was not found (%s): %w", dst, err)
	}
	if !fi.Mode().IsDir() {
		return fmt.Errorf("destination is not a directory (%s)", dst)
	}

	for _, f := range frags.All() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeFragment(dst, f, log); err != nil {
			log.Error("Unable to emit fragment", zap.String("trait", f.TraitPath), zap.Error(err))
			continue
		}
		log.Debug("Fragment emitted",
			zap.String("trait", f.TraitPath), zap.Int("packages", len(f.Mapping)), zap.Int("entries", f.Mapping.Count()))
	}
	return nil
}

// writeFragment stores the fragment script for one trait. An existing script
// is parsed first and the manifest mapping merged over it key by key, several
// generators can contribute to one shared tree.
func writeFragment(root string, f *fragment.Fragment, log *zap.Logger) error {
	name := filepath.Join(root, filepath.FromSlash(fragment.ScriptPath(f.TraitPath)))

	mapping := f.Mapping
	data, err := os.ReadFile(name)
	switch {
	case err == nil:
		existing, perr := fragment.ParseScript(data)
		if perr != nil {
			log.Warn("Replacing fragment script that does not parse", zap.String("file", name), zap.Error(perr))
			break
		}
		merged := existing.Clone()
		merged.Merge(mapping)
		mapping = merged
	case os.IsNotExist(err):
		if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
			return fmt.Errorf("unable to create output directory: %w", err)
		}
	default:
		return err
	}

	return os.WriteFile(name, fragment.Encode(mapping), 0644)
}
