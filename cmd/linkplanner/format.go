package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/signalsfoundry/linkplanner/core"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printAnalysis(w io.Writer, a *core.LinkAnalysis) {
	if a == nil {
		fmt.Fprintln(w, "No analysis available.")
		return
	}
	p := a.Parameters
	b := a.Budget

	fmt.Fprintln(w, "Link Budget")
	fmt.Fprintln(w, "===========")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  Frequency:\t%.0f MHz\n", p.FrequencyMHz)
	fmt.Fprintf(tw, "  Distance:\t%.3f km\n", p.DistanceM/1000)
	fmt.Fprintf(tw, "  Climate:\t%s\n", p.Climate)
	fmt.Fprintf(tw, "  Free-space loss:\t%.2f dB\n", b.FreeSpaceLossDb)
	fmt.Fprintf(tw, "  Atmospheric loss:\t%.2f dB\n", b.AtmosphericLossDb)
	fmt.Fprintf(tw, "  Total loss:\t%.2f dB\n", b.TotalLossDb)
	fmt.Fprintf(tw, "  Total gain:\t%.2f dB\n", b.TotalGainDb)
	fmt.Fprintf(tw, "  Received power:\t%.2f dBm\n", b.ReceivedPowerDbm)
	fmt.Fprintf(tw, "  System margin:\t%.2f dB\n", b.SystemMarginDb)
	fmt.Fprintf(tw, "  Availability:\t%.4f %%\n", b.AvailabilityPercent)
	_ = tw.Flush()
	fmt.Fprintln(w)

	if len(a.Obstacles) > 0 {
		fmt.Fprintf(w, "Obstacles (%d intruding):\n", a.IntrudingCount())
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  ID\tFROM TX (m)\tFRESNEL (m)\tLOSS (dB)\tINTRUDING")
		for i, o := range a.Obstacles {
			id := o.Obstacle.ID
			if id == "" {
				id = fmt.Sprintf("#%d", i+1)
			}
			fmt.Fprintf(tw, "  %s\t%.1f\t%.2f\t%.2f\t%t\n", id, o.DistanceFromTxM, o.FresnelRadiusM, o.DiffractionLossDb, o.Intruding)
		}
		_ = tw.Flush()
		fmt.Fprintf(w, "  Total diffraction loss: %.2f dB\n\n", a.Diffraction.TotalLossDb)
	}

	verdict := "VIABLE"
	if !a.Viable {
		verdict = "NOT VIABLE"
	}
	fmt.Fprintf(w, "Result: %s (effective margin %.2f dB, quality %s)\n", verdict, a.EffectiveMarginDb, a.Quality)
}

func printPresets(w io.Writer, presets []core.Preset) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tFREQ (MHz)\tDIST (km)\tTX (dBm)\tGAINS (dBi)\tDESCRIPTION")
	for _, p := range presets {
		q := p.Parameters
		fmt.Fprintf(tw, "%s\t%.0f\t%.1f\t%.1f\t%.0f/%.0f\t%s\n",
			p.Name, q.FrequencyMHz, q.DistanceM/1000, q.TxPowerDbm, q.TxGainDbi, q.RxGainDbi, p.Description)
	}
	_ = tw.Flush()
}
