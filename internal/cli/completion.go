// Package cli generates shell completion scripts for eatsctl.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// Command describes one subcommand for completion.
type Command struct {
	Name    string
	Summary string
	Flags   []string
}

// Shells lists the supported shells.
var Shells = []string{"bash", "zsh", "fish"}

type scriptData struct {
	Program     string
	Func        string
	Commands    []Command
	GlobalFlags []string
}

var bashTemplate = template.Must(template.New("bash").Parse(`#!/bin/bash
# Bash completion for {{.Program}}

{{.Func}}() {
    local cur prev
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    local commands="{{range .Commands}}{{.Name}} {{end}}completion"
    local global_flags="{{range .GlobalFlags}}-{{.}} {{end}}"

    case "${prev}" in
        -config)
            COMPREPLY=( $(compgen -f -- ${cur}) )
            return 0
            ;;
        -locale)
            COMPREPLY=( $(compgen -W "en zh-Hant" -- ${cur}) )
            return 0
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh fish" -- ${cur}) )
            return 0
            ;;
    esac

    local word
    for word in "${COMP_WORDS[@]:1:COMP_CWORD-1}"; do
        case "${word}" in
{{- range .Commands}}
            {{.Name}})
                COMPREPLY=( $(compgen -W "{{range .Flags}}-{{.}} {{end}}" -- ${cur}) )
                return 0
                ;;
{{- end}}
        esac
    done

    COMPREPLY=( $(compgen -W "${commands} ${global_flags}" -- ${cur}) )
    return 0
}

complete -F {{.Func}} {{.Program}}
`))

var zshTemplate = template.Must(template.New("zsh").Parse(`#compdef {{.Program}}

{{.Func}}() {
    local -a commands
    commands=(
{{- range .Commands}}
        '{{.Name}}:{{.Summary}}'
{{- end}}
        'completion:Generate shell completion script'
    )

    _arguments -C \
        '-config[Configuration file path]:file:_files' \
        '-locale[Display locale]:locale:(en zh-Hant)' \
        '-json[Print JSON]' \
        '-v[Debug logging]' \
        '1: :->command' \
        '*:: :->args'

    case $state in
        command)
            _describe 'command' commands
            ;;
        args)
            case $words[1] in
{{- range .Commands}}
                {{.Name}})
                    _values 'flag' {{range .Flags}}-{{.}} {{end}}
                    ;;
{{- end}}
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

{{.Func}} "$@"
`))

var fishTemplate = template.Must(template.New("fish").Parse(`# Fish completion for {{.Program}}
{{range .Commands}}
complete -c {{$.Program}} -f -n "__fish_use_subcommand" -a "{{.Name}}" -d "{{.Summary}}"
{{- $name := .Name}}{{range .Flags}}
complete -c {{$.Program}} -f -n "__fish_seen_subcommand_from {{$name}}" -o {{.}}
{{- end}}
{{end}}
complete -c {{.Program}} -f -n "__fish_use_subcommand" -a "completion" -d "Generate shell completion"
complete -c {{.Program}} -f -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
{{range .GlobalFlags}}
complete -c {{$.Program}} -o {{.}}
{{- end}}
`))

// Generate writes the completion script for shell to w.
func Generate(w io.Writer, shell, program string, commands []Command, globalFlags []string) error {
	var tmpl *template.Template
	switch shell {
	case "bash":
		tmpl = bashTemplate
	case "zsh":
		tmpl = zshTemplate
	case "fish":
		tmpl = fishTemplate
	default:
		return fmt.Errorf("unsupported shell: %s (supported: %s)", shell, strings.Join(Shells, ", "))
	}
	data := scriptData{
		Program:     program,
		Func:        "_" + strings.ReplaceAll(program, "-", "_") + "_completion",
		Commands:    commands,
		GlobalFlags: globalFlags,
	}
	return tmpl.Execute(w, data)
}

// InstallPath returns where Install writes the script for shell under home.
func InstallPath(home, shell, program string) (string, error) {
	switch shell {
	case "bash":
		return filepath.Join(home, ".bash_completion.d", program), nil
	case "zsh":
		return filepath.Join(home, ".zsh", "completion", "_"+program), nil
	case "fish":
		return filepath.Join(home, ".config", "fish", "completions", program+".fish"), nil
	}
	return "", fmt.Errorf("unsupported shell: %s", shell)
}

// Install writes the completion script under home and returns its path.
func Install(home, shell, program string, commands []Command, globalFlags []string) (string, error) {
	path, err := InstallPath(home, shell, program)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create completion directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to write completion script: %w", err)
	}
	defer f.Close()
	if err := Generate(f, shell, program, commands, globalFlags); err != nil {
		return "", err
	}
	return path, nil
}
