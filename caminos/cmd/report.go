package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/nakacristo/caminos-lib-sub002/datarecording"
	"github.com/nakacristo/caminos-lib-sub002/noc/messaging"
	"github.com/nakacristo/caminos-lib-sub002/sim"
	"github.com/nakacristo/caminos-lib-sub002/simulation"
	"github.com/nakacristo/caminos-lib-sub002/tracing"
	"github.com/spf13/cobra"
)

var (
	reportFrom    uint64
	reportTo      uint64
	reportServers int
)

var reportCmd = &cobra.Command{
	Use:   "report <packets.sqlite3>",
	Short: "Summarize the packets recorded by a run.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reader, err := datarecording.NewReader(args[0])
		if err != nil {
			return err
		}
		defer reader.Close()

		summary, err := summarizeRecorded(cmd.Context(), reader,
			sim.Cycle(reportFrom), sim.Cycle(reportTo), reportServers)
		if err != nil {
			return err
		}

		printSummary(cmd.OutOrStdout(), summary)

		return nil
	},
}

func init() {
	f := reportCmd.Flags()
	f.Uint64Var(&reportFrom, "from", 0,
		"First creation cycle of the measured packets.")
	f.Uint64Var(&reportTo, "to", 0,
		"End of the measurement window, open when zero.")
	f.IntVar(&reportServers, "servers", 0,
		"Number of servers, needed for the accepted load.")

	rootCmd.AddCommand(reportCmd)
}

// summarizeRecorded replays the packet table of a database through a
// PacketTracer.
func summarizeRecorded(
	ctx context.Context,
	reader datarecording.DataReader,
	from, to sim.Cycle,
	numServers int,
) (tracing.PacketSummary, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	tracing.MapPacketTable(reader)

	rows, _, err := reader.Query(ctx, tracing.PacketTableName,
		datarecording.QueryParams{OrderBy: "CompletionCycle"})
	if err != nil {
		return tracing.PacketSummary{}, err
	}

	tracer := tracing.NewPacketTracer(from, to)

	var last sim.Cycle
	for _, row := range rows {
		r := row.(*messaging.PacketRecord)
		tracer.RecordPacket(*r)
		last = max(last, sim.Cycle(r.CompletionCycle))
	}

	tracer.Terminate()

	var cycles sim.Cycle
	switch {
	case to > from:
		cycles = to - from
	case last > from:
		cycles = last - from
	}

	return tracer.Summary(numServers, cycles), nil
}

func printResult(w io.Writer, res simulation.Result) {
	fmt.Fprintf(w, "run                 %s\n", res.RunID)
	fmt.Fprintf(w, "cycles              %d\n", res.Cycles)
	fmt.Fprintf(w, "stop reason         %s\n", res.Reason)
	fmt.Fprintf(w, "generated messages  %d\n", res.GeneratedMessages)
	fmt.Fprintf(w, "self messages       %d\n", res.SelfMessages)
	fmt.Fprintf(w, "injected flits      %d\n", res.InjectedFlits)
	fmt.Fprintf(w, "ejected flits       %d\n", res.EjectedFlits)
	fmt.Fprintf(w, "delivered phits     %d\n", res.DeliveredPhits)
	fmt.Fprintf(w, "completed packets   %d\n", res.CompletedPackets)
	fmt.Fprintf(w, "completed messages  %d\n", res.CompletedMessages)
}

func printSummary(w io.Writer, s tracing.PacketSummary) {
	fmt.Fprintf(w, "measured packets    %d\n", s.Packets)
	fmt.Fprintf(w, "measured flits      %d\n", s.Flits)
	fmt.Fprintf(w, "average latency     %.2f\n", s.AverageLatency)
	fmt.Fprintf(w, "latency stddev      %.2f\n", s.LatencyStdDev)
	fmt.Fprintf(w, "median latency      %.0f\n", s.MedianLatency)
	fmt.Fprintf(w, "p99 latency         %.0f\n", s.P99Latency)
	fmt.Fprintf(w, "max latency         %d\n", s.MaxLatency)
	fmt.Fprintf(w, "network latency     %.2f\n", s.AverageNetLatency)
	fmt.Fprintf(w, "average hops        %.2f\n", s.AverageHops)
	fmt.Fprintf(w, "accepted load       %.4f\n", s.AcceptedLoad)
}
