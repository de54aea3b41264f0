package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/signalsfoundry/linkplanner/core"
	"github.com/signalsfoundry/linkplanner/internal/linkapi"
	"github.com/signalsfoundry/linkplanner/internal/logging"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"gopkg.in/yaml.v3"
)

// planner is the subset of the link API used by the CLI. The in-process
// service satisfies it directly; remotePlanner adapts the gRPC client.
type planner interface {
	EvaluateLink(context.Context, *linkapi.EvaluateLinkRequest) (*linkapi.EvaluateLinkResponse, error)
	AnalyzeScenario(context.Context, *linkapi.AnalyzeScenarioRequest) (*linkapi.EvaluateLinkResponse, error)
	EstimateFadeMargin(context.Context, *linkapi.EstimateFadeMarginRequest) (*linkapi.EstimateFadeMarginResponse, error)
	ListPresets(context.Context, *linkapi.ListPresetsRequest) (*linkapi.ListPresetsResponse, error)
	GetPreset(context.Context, *linkapi.GetPresetRequest) (*linkapi.GetPresetResponse, error)
}

type remotePlanner struct {
	client *linkapi.Client
}

func (r remotePlanner) EvaluateLink(ctx context.Context, in *linkapi.EvaluateLinkRequest) (*linkapi.EvaluateLinkResponse, error) {
	return r.client.EvaluateLink(ctx, in)
}

func (r remotePlanner) AnalyzeScenario(ctx context.Context, in *linkapi.AnalyzeScenarioRequest) (*linkapi.EvaluateLinkResponse, error) {
	return r.client.AnalyzeScenario(ctx, in)
}

func (r remotePlanner) EstimateFadeMargin(ctx context.Context, in *linkapi.EstimateFadeMarginRequest) (*linkapi.EstimateFadeMarginResponse, error) {
	return r.client.EstimateFadeMargin(ctx, in)
}

func (r remotePlanner) ListPresets(ctx context.Context, in *linkapi.ListPresetsRequest) (*linkapi.ListPresetsResponse, error) {
	return r.client.ListPresets(ctx, in)
}

func (r remotePlanner) GetPreset(ctx context.Context, in *linkapi.GetPresetRequest) (*linkapi.GetPresetResponse, error) {
	return r.client.GetPreset(ctx, in)
}

// openPlanner returns the planner selected by the root flags and a func
// releasing its resources.
func openPlanner(opts *rootOptions) (planner, func(), error) {
	if opts.server != "" {
		conn, err := grpc.NewClient(opts.server, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to %s: %w", opts.server, err)
		}
		return remotePlanner{client: linkapi.NewClient(conn)}, func() { _ = conn.Close() }, nil
	}

	catalog, err := core.NewCatalog(core.DefaultPresets()...)
	if err != nil {
		return nil, nil, err
	}
	if opts.presetsPath != "" {
		f, err := os.Open(opts.presetsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("loading presets: %w", err)
		}
		presets, err := core.LoadPresets(f)
		f.Close()
		if err != nil {
			return nil, nil, err
		}
		for _, p := range presets {
			if err := catalog.Put(p); err != nil {
				return nil, nil, err
			}
		}
	}

	log := logging.New(logging.Config{Level: opts.logLevel, Format: "text", Output: os.Stderr})
	return linkapi.NewService(catalog, nil, nil, log), func() {}, nil
}

func runEvaluate(cmd *cobra.Command, opts *rootOptions, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading scenario: %w", err)
	}
	doc, err := scenarioJSON(raw)
	if err != nil {
		return fmt.Errorf("parsing scenario %s: %w", path, err)
	}

	p, closeFn, err := openPlanner(opts)
	if err != nil {
		return err
	}
	defer closeFn()

	resp, err := p.AnalyzeScenario(cmd.Context(), &linkapi.AnalyzeScenarioRequest{Scenario: doc})
	if err != nil {
		return err
	}
	if opts.jsonOutput {
		return printJSON(cmd.OutOrStdout(), resp)
	}
	printAnalysis(cmd.OutOrStdout(), resp.Analysis)
	return nil
}

func runPreset(cmd *cobra.Command, opts *rootOptions, name string, samples int) error {
	p, closeFn, err := openPlanner(opts)
	if err != nil {
		return err
	}
	defer closeFn()

	resp, err := p.EvaluateLink(cmd.Context(), &linkapi.EvaluateLinkRequest{Preset: name, ProfileSamples: samples})
	if err != nil {
		return err
	}
	if opts.jsonOutput {
		return printJSON(cmd.OutOrStdout(), resp)
	}
	printAnalysis(cmd.OutOrStdout(), resp.Analysis)
	return nil
}

func runPresets(cmd *cobra.Command, opts *rootOptions) error {
	p, closeFn, err := openPlanner(opts)
	if err != nil {
		return err
	}
	defer closeFn()

	resp, err := p.ListPresets(cmd.Context(), &linkapi.ListPresetsRequest{})
	if err != nil {
		return err
	}
	if opts.jsonOutput {
		return printJSON(cmd.OutOrStdout(), resp)
	}
	printPresets(cmd.OutOrStdout(), resp.Presets)
	return nil
}

func fadeRequest(frequency, distance float64, climate string, reliability float64, reliabilitySet bool) *linkapi.EstimateFadeMarginRequest {
	req := &linkapi.EstimateFadeMarginRequest{
		FrequencyMHz: frequency,
		DistanceM:    distance,
		Climate:      climate,
	}
	if reliabilitySet {
		req.ReliabilityPercent = &reliability
	}
	return req
}

func runFadeMargin(cmd *cobra.Command, opts *rootOptions, req *linkapi.EstimateFadeMarginRequest) error {
	p, closeFn, err := openPlanner(opts)
	if err != nil {
		return err
	}
	defer closeFn()

	resp, err := p.EstimateFadeMargin(cmd.Context(), req)
	if err != nil {
		return err
	}
	if opts.jsonOutput {
		return printJSON(cmd.OutOrStdout(), resp)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Fade margin (%s): %.2f dB\n", resp.Climate, resp.FadeMarginDb)
	return nil
}

// scenarioJSON re-encodes a YAML (or JSON) scenario document as JSON so it
// can travel inside AnalyzeScenarioRequest.
func scenarioJSON(raw []byte) (json.RawMessage, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("empty document")
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return out, nil
}
