package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	overlay "github.com/goliatone/go-overlay"
	"github.com/goliatone/go-overlay/pkg/activity"
	"github.com/goliatone/go-overlay/pkg/zaplog"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type session struct {
	root *overlay.View[string, any]
	view *overlay.View[string, any]
}

func runList(cmd *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	for key, value := range s.view.All() {
		marker := " "
		if s.view.HasOverride(key) {
			marker = "*"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", marker, key, formatValue(value))
	}
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	value, ok := s.view.TryGet(args[0])
	if !ok {
		return fmt.Errorf("key %q not found", args[0])
	}
	fmt.Fprintln(cmd.OutOrStdout(), formatValue(value))
	return nil
}

func runTrace(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	payload, err := s.view.Trace(args[0]).ToJSON()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(payload))
	return nil
}

func runSet(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	var value any
	if err := yaml.Unmarshal([]byte(args[1]), &value); err != nil {
		return fmt.Errorf("parse value %q: %w", args[1], err)
	}

	key := args[0]
	if setBase {
		s.root.Store().Set(key, value)
	} else if err := s.view.Set(key, value); err != nil {
		if !errors.Is(err, overlay.ErrKeyNotFound) {
			return err
		}
		// a view write to a missing key creates it with a zero base
		if err := s.view.Add(key, value); err != nil {
			return err
		}
	}

	if err := save(s.root); err != nil {
		return err
	}
	logger.Info("Saved overlay document", zap.String("file", file), zap.String("key", key))
	fmt.Fprintln(cmd.OutOrStdout(), formatValue(s.view.Get(key)))
	return nil
}

func runNewView(cmd *cobra.Command, _ []string) error {
	fmt.Fprintln(cmd.OutOrStdout(), overlay.NewViewID())
	return nil
}

func openSession() (*session, error) {
	if file == "" {
		return nil, errors.New("--file is required")
	}
	combine, err := buildCombiner()
	if err != nil {
		return nil, err
	}
	opts := []overlay.Option{
		overlay.WithActivityHooks(activity.Hooks{zaplog.ActivityHook(logger)}),
		overlay.WithActivityErrorHandler(func(err error) {
			logger.Warn("Activity hook failed", zap.Error(err))
		}),
	}

	var root *overlay.View[string, any]
	doc, err := load(file)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug("Document not found, starting empty", zap.String("file", file))
		root = overlay.NewView[string, any](combine, opts...)
	case err != nil:
		return nil, err
	default:
		root, err = overlay.Restore(doc, combine, opts...)
		if err != nil {
			return nil, fmt.Errorf("restore %s: %w", file, err)
		}
	}
	if viewID == "" {
		return &session{root: root, view: root}, nil
	}

	id, err := overlay.ParseViewID(viewID)
	if err != nil {
		return nil, err
	}
	if id == root.ID() {
		return &session{root: root, view: root}, nil
	}
	view, err := overlay.RestoreSibling(root, overlay.Document[string, any]{
		Version: overlay.DocumentVersion,
		ViewID:  id,
	})
	if err != nil {
		return nil, err
	}
	return &session{root: root, view: view}, nil
}

func buildCombiner() (overlay.Combiner[any], error) {
	opts := []overlay.CombinerOption{overlay.WithCombineLogger(zaplog.CombineLogger(logger))}
	if expr != "" {
		switch strings.ToLower(engine) {
		case "", "expr":
			return overlay.NewExprCombiner[any](expr, opts...)
		case "cel":
			return overlay.NewCELCombiner[any](expr, opts...)
		case "js":
			return overlay.NewJSCombiner[any](expr, opts...)
		default:
			return nil, fmt.Errorf("unknown engine %q", engine)
		}
	}
	switch strings.ToLower(combiner) {
	case "", "replace":
		return overlay.Replace[any](), nil
	case "merge":
		return overlay.Merge[any](), nil
	default:
		return nil, fmt.Errorf("unknown combiner %q", combiner)
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func load(path string) (overlay.Document[string, any], error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return overlay.Document[string, any]{}, err
	}
	if isYAML(path) {
		return overlay.DecodeYAML[string, any](payload)
	}
	return overlay.DecodeJSON[string, any](payload, overlay.WithDocumentSource(path))
}

func save(root *overlay.View[string, any]) error {
	encode := overlay.EncodeJSON[string, any]
	if isYAML(file) {
		encode = overlay.EncodeYAML[string, any]
	}
	payload, err := encode(root)
	if err != nil {
		return err
	}
	return os.WriteFile(file, payload, 0o644)
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	}
	out, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return strings.TrimSpace(string(out))
}
