package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/llmwire/llmwire/core/client"
	"github.com/llmwire/llmwire/providers/ai"
)

var (
	flagModel       string
	flagSystem      string
	flagStream      bool
	flagMaxTokens   int
	flagTemperature float64
)

var generateCmd = &cobra.Command{
	Use:   "generate <backend> <prompt...>",
	Short: "Run one generation call against a backend",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&flagModel, "model", "m", "", "model identifier (backend default when empty)")
	generateCmd.Flags().StringVar(&flagSystem, "system", "", "system prompt")
	generateCmd.Flags().BoolVarP(&flagStream, "stream", "s", false, "stream the response as it arrives")
	generateCmd.Flags().IntVar(&flagMaxTokens, "max-tokens", 0, "cap on generated tokens (0 = backend default)")
	generateCmd.Flags().Float64VarP(&flagTemperature, "temperature", "t", -1, "sampling temperature (unset when negative)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	reg, err := buildRegistry()
	if err != nil {
		return err
	}

	provider, err := reg.Resolve(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	c, err := client.New(provider,
		client.WithModel(flagModel),
		client.WithSystemPrompt(flagSystem),
		client.WithObserver(observer()),
	)
	if err != nil {
		return err
	}

	request := ai.Request{
		Turns:      []ai.Turn{ai.UserTurn(strings.Join(args[1:], " "))},
		Generation: generationParams(),
	}

	if flagStream {
		return streamToStdout(cmd, c, request)
	}

	response, err := c.Generate(cmd.Context(), request)
	if err != nil {
		return err
	}

	fmt.Println(response.Text())
	printToolCalls(response.ToolCalls())
	printUsage(response.Usage)
	return nil
}

func generationParams() *ai.GenerationParams {
	if flagMaxTokens <= 0 && flagTemperature < 0 {
		return nil
	}

	params := &ai.GenerationParams{MaxOutputTokens: flagMaxTokens}
	if flagTemperature >= 0 {
		temperature := flagTemperature
		params.Temperature = &temperature
	}
	return params
}

func streamToStdout(cmd *cobra.Command, c *client.Client, request ai.Request) error {
	stream, err := c.GenerateStream(cmd.Context(), request)
	if err != nil {
		return err
	}

	warn := color.New(color.FgYellow).FprintfFunc()
	var usage *ai.Usage

	for chunk, err := range stream.Iter() {
		if err != nil {
			fmt.Println()
			return err
		}

		switch chunk.Kind {
		case ai.ChunkText:
			fmt.Print(chunk.Content)
		case ai.ChunkToolCallEnd:
			fmt.Printf("\n[tool call] %s(%s)\n", chunk.ToolCall.Name, chunk.ToolCall.ArgumentsFragment)
		case ai.ChunkUsage:
			usage = chunk.Usage
		case ai.ChunkError:
			warn(os.Stderr, "\n[stream error] %s\n", chunk.Error)
		}
	}

	fmt.Println()
	printUsage(usage)
	return nil
}

func printToolCalls(calls []ai.ToolCall) {
	for _, call := range calls {
		fmt.Printf("[tool call] %s(%s)\n", call.Name, call.Arguments)
	}
}

func printUsage(usage *ai.Usage) {
	if usage == nil {
		return
	}
	dim := color.New(color.Faint).SprintfFunc()
	fmt.Fprintln(os.Stderr, dim("tokens: %d prompt + %d completion = %d total",
		usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens))
}
