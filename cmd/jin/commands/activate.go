package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/anthropics/jin/internal/jctx"
	"github.com/anthropics/jin/internal/layer"
	"github.com/anthropics/jin/internal/objstore"
)

func init() {
	register(func(root *cobra.Command) {
		root.AddCommand(newComponentCmd("mode"))
		root.AddCommand(newComponentCmd("scope"))
		root.AddCommand(newComponentCmd("project"))
	})
}

// newComponentCmd builds the create/use/list/delete command group for
// one context component ("mode", "scope", or "project"). A layer
// coordinate only ever becomes real once something is committed to it
// (spec §4.9), so create and use both just activate the context;
// delete removes every existing layer ref naming the component and
// clears it from the active context if set.
func newComponentCmd(component string) *cobra.Command {
	parent := &cobra.Command{
		Use:   component,
		Short: fmt.Sprintf("Manage the active %s", component),
	}

	parent.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: fmt.Sprintf("Activate a new %s (its layer starts empty until something is committed)", component),
		Args:  cobra.ExactArgs(1),
		RunE:  componentActivateFunc(component),
	})
	parent.AddCommand(&cobra.Command{
		Use:   "use <name>",
		Short: fmt.Sprintf("Activate an existing %s", component),
		Args:  cobra.ExactArgs(1),
		RunE:  componentActivateFunc(component),
	})
	parent.AddCommand(&cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List every %s name with a committed layer", component),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyNoColor(cmd)
			w, err := openReading()
			if err != nil {
				return err
			}
			defer w.Close()
			names, err := componentNames(w.Store(), component)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no %s layers yet\n", component)
				return nil
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	})
	parent.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: fmt.Sprintf("Delete every layer ref naming this %s", component),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyNoColor(cmd)
			name := args[0]
			w, err := openMutating(false)
			if err != nil {
				return err
			}
			defer w.Close()

			if err := deleteComponent(w.Store(), component, name); err != nil {
				return err
			}

			ctx, err := jctx.Load(w.StateDir())
			if err != nil {
				return err
			}
			if componentValue(ctx, component) == name {
				if _, err := jctx.Deactivate(w.StateDir(), component); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %q\n", component, name)
			return nil
		},
	})

	return parent
}

func componentActivateFunc(component string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		applyNoColor(cmd)
		w, err := openMutating(false)
		if err != nil {
			return err
		}
		defer w.Close()
		ctx, err := jctx.Activate(w.StateDir(), component, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "active context: mode=%s scope=%s project=%s\n", orNone(ctx.Mode), orNone(ctx.Scope), orNone(ctx.Project))
		return nil
	}
}

func componentValue(ctx layer.Context, component string) string {
	switch component {
	case "mode":
		return ctx.Mode
	case "scope":
		return ctx.Scope
	case "project":
		return ctx.Project
	default:
		return ""
	}
}

// componentNames scans every committed layer ref and collects the
// distinct values the given component takes on.
func componentNames(s *objstore.Store, component string) ([]string, error) {
	refs, err := s.ListRefs("refs/jin/layers/")
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	for _, ref := range refs {
		l, err := layer.ParseLayerSpec(ref.Path)
		if err != nil {
			continue
		}
		if v := componentValueFromLayer(l, component); v != "" {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

func componentValueFromLayer(l layer.Layer, component string) string {
	switch component {
	case "mode":
		return l.Mode
	case "scope":
		return l.Scope
	case "project":
		return l.Project
	default:
		return ""
	}
}

// deleteComponent removes every layer ref whose parsed Layer names
// component=name.
func deleteComponent(s *objstore.Store, component, name string) error {
	refs, err := s.ListRefs("refs/jin/layers/")
	if err != nil {
		return err
	}
	for _, ref := range refs {
		l, err := layer.ParseLayerSpec(ref.Path)
		if err != nil {
			continue
		}
		if componentValueFromLayer(l, component) == name {
			if err := s.DeleteRef(ref.Path); err != nil {
				return err
			}
		}
	}
	return nil
}
