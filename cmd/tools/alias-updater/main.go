package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"storefront-workers/internal/variant"
	"storefront-workers/pkg/aliasregistry"
)

const defaultPath = "configs/color-aliases.yaml"

func main() {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	removeCmd := flag.NewFlagSet("remove", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	addPath := addCmd.String("path", defaultPath, "Path to alias file")
	addToken := addCmd.String("token", "", "Color token as it appears in descriptors (e.g., autumn)")
	addAliases := addCmd.String("aliases", "", "Comma-separated vendor color names (e.g., \"Rust,Burnt Orange\")")
	addNote := addCmd.String("note", "", "Why the aliases were added")

	removePath := removeCmd.String("path", defaultPath, "Path to alias file")
	removeToken := removeCmd.String("token", "", "Color token")
	removeAlias := removeCmd.String("alias", "", "Alias to drop; omit to drop the whole token")

	validatePath := validateCmd.String("path", defaultPath, "Path to alias file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		_ = addCmd.Parse(os.Args[2:])
		if *addToken == "" || *addAliases == "" {
			fmt.Println("Error: token and aliases are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		exitOnErr("adding aliases", edit(*addPath, func(reg *aliasregistry.AliasRegistry) error {
			return reg.Add(*addToken, strings.Split(*addAliases, ","), *addNote, time.Now())
		}))
		fmt.Printf("Added aliases for %s\n", *addToken)

	case "remove":
		_ = removeCmd.Parse(os.Args[2:])
		if *removeToken == "" {
			fmt.Println("Error: token is required for remove.")
			removeCmd.Usage()
			os.Exit(1)
		}
		exitOnErr("removing alias", edit(*removePath, func(reg *aliasregistry.AliasRegistry) error {
			return reg.Remove(*removeToken, *removeAlias, time.Now())
		}))
		fmt.Printf("Removed %s\n", strings.TrimSpace(*removeToken+" "+*removeAlias))

	case "validate":
		_ = validateCmd.Parse(os.Args[2:])
		reg, err := aliasregistry.Load(*validatePath)
		exitOnErr("loading registry", err)
		exitOnErr("registry validation", reg.Validate())
		table := variant.NewAliasTable(reg.Map())
		fmt.Printf("Registry validation passed. Found %d tokens.\n", table.Len())

	default:
		help()
	}
}

// edit loads the file, applies change, validates and saves. An invalid
// result is never written.
func edit(path string, change func(reg *aliasregistry.AliasRegistry) error) error {
	reg, err := aliasregistry.LoadOrNew(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := change(reg); err != nil {
		return err
	}
	if err := reg.Validate(); err != nil {
		return fmt.Errorf("change would leave registry invalid: %w", err)
	}
	return aliasregistry.Save(reg, path)
}

func exitOnErr(what string, err error) {
	if err != nil {
		fmt.Printf("Error %s: %v\n", what, err)
		os.Exit(1)
	}
}

func help() {
	fmt.Println(`
Usage: alias-updater <command> [flags]

Commands:
  add       Add vendor color aliases to a token
  remove    Remove one alias, or a whole token
  validate  Validate the alias file
  help      Show this help message

Examples:
  alias-updater add -token autumn -aliases "Rust,Burnt Orange" -note "new supplier palette"
  alias-updater remove -token autumn -alias Rust
  alias-updater validate -path configs/color-aliases.yaml`)
}
