// agentctl submits agents to the platform from the command line using
// the same staging and submission flow as the web dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sajmeister/aaplat/internal/client"
	"github.com/sajmeister/aaplat/internal/types"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "check":
		err = runCheck(os.Args[2:])
	case "submit":
		err = runSubmit(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  agentctl check <file>...
  agentctl submit -server URL -token TOKEN -name NAME -description DESC -category CAT -runtime RT [-version V] [-public] <file>...`)
}

// stageFiles reads the given paths into a fresh stager and prints what
// was accepted and what was rejected
func stageFiles(paths []string) (*client.Stager, error) {
	stager := client.NewStager(0)

	var batch []client.FileInput
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		batch = append(batch, client.FileInput{
			Name:    filepath.Base(path),
			Content: content,
		})
	}
	stager.Add(batch...)

	for _, file := range stager.Files() {
		if file.Err != nil {
			fmt.Printf("  ✗ %-30s %s\n", file.Name, file.Err.Error())
			continue
		}
		fmt.Printf("  ✓ %-30s %-14s %d bytes\n", file.Name, file.Category, file.Size)
	}

	return stager, nil
}

func runCheck(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no files given")
	}

	stager, err := stageFiles(args)
	if err != nil {
		return err
	}

	valid := stager.ValidFiles()
	fmt.Printf("%d of %d files are eligible for upload\n", len(valid), len(stager.Files()))
	return nil
}

func runSubmit(args []string) error {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	server := fs.String("server", "http://localhost:8080", "Platform base URL")
	token := fs.String("token", os.Getenv("AGENTCTL_TOKEN"), "Session token (or AGENTCTL_TOKEN)")
	name := fs.String("name", "", "Agent name")
	description := fs.String("description", "", "Agent description")
	category := fs.String("category", "", "Agent category")
	runtime := fs.String("runtime", "", "Agent runtime (python, nodejs, rust)")
	version := fs.String("version", "", "Agent version (semver)")
	public := fs.Bool("public", false, "List the agent on the public marketplace")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *token == "" {
		return fmt.Errorf("a session token is required (use -token or AGENTCTL_TOKEN)")
	}

	stager, err := stageFiles(fs.Args())
	if err != nil {
		return err
	}

	api := client.New(*server, *token)
	submitter := client.NewSubmitter(api, stager)
	submitter.SetOnState(func(state client.SubmitState) {
		switch state {
		case client.StateCreatingRecord:
			fmt.Println("creating agent record...")
		case client.StateUploadingFiles:
			fmt.Println("uploading files...")
		}
	})

	agent, err := submitter.Submit(context.Background(), types.CreateAgentRequest{
		Name:        *name,
		Description: *description,
		Category:    types.AgentCategory(*category),
		Runtime:     types.Runtime(*runtime),
		Version:     *version,
		IsPublic:    *public,
	})
	if err != nil {
		return err
	}

	fmt.Printf("agent %s created (version %s)\n", agent.ID, agent.Version)
	return nil
}
