package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deskaudio/pulse"
	"github.com/deskaudio/pulse/proto"
)

var listKinds = []string{"sinks", "sources", "sink-inputs", "source-outputs", "modules", "clients", "cards"}

func infoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show server information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, c *pulse.Client) error {
				info, err := c.ServerInfo(ctx)
				if err != nil {
					return err
				}
				report := serverReport{
					GetServerInfoReply: *info,
					Server:             c.Server().String(),
					ProtocolVersion:    c.ProtocolVersion(),
					ClientIndex:        c.Index(),
				}
				return a.out.print(report, func(w io.Writer) {
					fmt.Fprintf(w, "Server:\t%s %s\n", info.PackageName, info.PackageVersion)
					fmt.Fprintf(w, "Address:\t%s\n", report.Server)
					fmt.Fprintf(w, "Protocol version:\t%d\n", report.ProtocolVersion)
					fmt.Fprintf(w, "Client index:\t%s\n", report.ClientIndex)
					fmt.Fprintf(w, "User:\t%s@%s\n", info.Username, info.Hostname)
					fmt.Fprintf(w, "Sample spec:\t%s\n", sampleSpec(info.DefaultSampleSpec))
					fmt.Fprintf(w, "Default sink:\t%s\n", info.DefaultSinkName)
					fmt.Fprintf(w, "Default source:\t%s\n", info.DefaultSourceName)
				})
			})
		},
	}
}

type serverReport struct {
	proto.GetServerInfoReply

	Server          string
	ProtocolVersion int
	ClientIndex     proto.Index
}

func sampleSpec(s proto.SampleSpec) string {
	return fmt.Sprintf("%s %dch %dHz", formatName(s.Format), s.Channels, s.Rate)
}

var formatNames = map[byte]string{
	proto.FormatUint8:      "u8",
	proto.FormatALaw:       "aLaw",
	proto.FormatULaw:       "uLaw",
	proto.FormatInt16LE:    "s16le",
	proto.FormatInt16BE:    "s16be",
	proto.FormatFloat32LE:  "float32le",
	proto.FormatFloat32BE:  "float32be",
	proto.FormatInt32LE:    "s32le",
	proto.FormatInt32BE:    "s32be",
	proto.FormatInt24LE:    "s24le",
	proto.FormatInt24BE:    "s24be",
	proto.FormatInt24_32LE: "s24-32le",
	proto.FormatInt24_32BE: "s24-32be",
}

func formatName(f byte) string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("format(%d)", f)
}

func listCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "list <" + strings.Join(listKinds, "|") + ">",
		Short:     "List objects of one kind",
		Args:      cobra.ExactArgs(1),
		ValidArgs: listKinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, c *pulse.Client) error {
				return a.list(ctx, c, args[0])
			})
		},
	}
}

func (a *app) list(ctx context.Context, c *pulse.Client, kind string) error {
	switch kind {
	case "sinks":
		sinks, err := c.Sinks(ctx)
		if err != nil {
			return err
		}
		info, err := c.ServerInfo(ctx)
		if err != nil {
			return err
		}
		infos := make([]*proto.GetSinkInfoReply, len(sinks))
		for i, s := range sinks {
			infos[i] = s.Info()
		}
		return a.out.print(infos, func(w io.Writer) {
			fmt.Fprintln(w, "INDEX\tNAME\tSTATE\tVOLUME\tMUTED\tDESCRIPTION")
			for _, s := range sinks {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.0f%%\t%s\t%s%s\n", s.Index(), s.ID(), s.Info().State,
					s.Volume().Percent(), mark(s.Muted()), s.Name(), a.defaultMark(s.ID() == info.DefaultSinkName))
			}
		})
	case "sources":
		sources, err := c.Sources(ctx)
		if err != nil {
			return err
		}
		info, err := c.ServerInfo(ctx)
		if err != nil {
			return err
		}
		infos := make([]*proto.GetSourceInfoReply, len(sources))
		for i, s := range sources {
			infos[i] = s.Info()
		}
		return a.out.print(infos, func(w io.Writer) {
			fmt.Fprintln(w, "INDEX\tNAME\tSTATE\tVOLUME\tMUTED\tMONITOR\tDESCRIPTION")
			for _, s := range sources {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.0f%%\t%s\t%s\t%s%s\n", s.Index(), s.ID(), s.Info().State,
					s.Volume().Percent(), mark(s.Muted()), mark(s.IsMonitor()), s.Name(), a.defaultMark(s.ID() == info.DefaultSourceName))
			}
		})
	case "sink-inputs":
		inputs, err := c.SinkInputs(ctx)
		if err != nil {
			return err
		}
		return a.out.print(inputs, func(w io.Writer) {
			fmt.Fprintln(w, "INDEX\tSINK\tCLIENT\tVOLUME\tMUTED\tNAME")
			for _, in := range inputs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.0f%%\t%s\t%s\n", in.SinkInputIndex, in.SinkIndex, in.ClientIndex,
					in.ChannelVolumes.Average().Percent(), mark(in.Muted), streamName(in.MediaName, in.Properties))
			}
		})
	case "source-outputs":
		outputs, err := c.SourceOutputs(ctx)
		if err != nil {
			return err
		}
		return a.out.print(outputs, func(w io.Writer) {
			fmt.Fprintln(w, "INDEX\tSOURCE\tCLIENT\tVOLUME\tMUTED\tNAME")
			for _, out := range outputs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.0f%%\t%s\t%s\n", out.SourceOutputIndex, out.SourceIndex, out.ClientIndex,
					out.ChannelVolumes.Average().Percent(), mark(out.Muted), streamName(out.MediaName, out.Properties))
			}
		})
	case "modules":
		modules, err := c.Modules(ctx)
		if err != nil {
			return err
		}
		return a.out.print(modules, func(w io.Writer) {
			fmt.Fprintln(w, "INDEX\tNAME\tARGUMENT")
			for _, m := range modules {
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.ModuleIndex, m.ModuleName, m.Argument)
			}
		})
	case "clients":
		clients, err := c.Clients(ctx)
		if err != nil {
			return err
		}
		return a.out.print(clients, func(w io.Writer) {
			fmt.Fprintln(w, "INDEX\tNAME\tDRIVER\tBINARY")
			for _, cl := range clients {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", cl.ClientIndex, cl.Application, cl.Driver,
					cl.Properties.String("application.process.binary"))
			}
		})
	case "cards":
		cards, err := c.Cards(ctx)
		if err != nil {
			return err
		}
		return a.out.print(cards, func(w io.Writer) {
			fmt.Fprintln(w, "INDEX\tNAME\tPROFILE\tDRIVER")
			for _, card := range cards {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", card.CardIndex, card.CardName, card.ActiveProfileName, card.Driver)
			}
		})
	}
	return fmt.Errorf("unknown kind %q, expected one of %s", kind, strings.Join(listKinds, ", "))
}

func (a *app) defaultMark(isDefault bool) string {
	if !isDefault {
		return ""
	}
	return "  " + a.out.highlight("(default)")
}

func streamName(media string, props proto.PropList) string {
	if name := props.String("application.name"); name != "" {
		if media != "" {
			return name + ": " + media
		}
		return name
	}
	return media
}

func getCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <sink|source|card> <name|index>",
		Short: "Show one device or card",
		Long: `Show everything the server reports about a device or card. Devices are
selected by index or by name; @DEFAULT_SINK@ and @DEFAULT_SOURCE@ select
the defaults.`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"sink", "source", "card"},
		RunE: func(cmd *cobra.Command, args []string) error {
			sel := proto.ParseSelector(args[1])
			return a.run(cmd, func(ctx context.Context, c *pulse.Client) error {
				switch args[0] {
				case "sink":
					s, err := c.Sink(ctx, sel)
					if err != nil {
						return err
					}
					info := s.Info()
					return a.out.print(info, func(w io.Writer) {
						a.device(w, device{
							index: info.SinkIndex, name: info.SinkName, desc: info.Description, driver: info.Driver,
							state: info.State, spec: info.SampleSpec, cvol: info.ChannelVolumes, mute: info.Mute,
							ports: info.Ports, activePort: info.ActivePortName, props: info.Properties,
						})
						fmt.Fprintf(w, "Monitor source:\t%s\n", info.MonitorSourceName)
					})
				case "source":
					s, err := c.Source(ctx, sel)
					if err != nil {
						return err
					}
					info := s.Info()
					return a.out.print(info, func(w io.Writer) {
						a.device(w, device{
							index: info.SourceIndex, name: info.SourceName, desc: info.Description, driver: info.Driver,
							state: info.State, spec: info.SampleSpec, cvol: info.ChannelVolumes, mute: info.Mute,
							ports: info.Ports, activePort: info.ActivePortName, props: info.Properties,
						})
						if s.IsMonitor() {
							fmt.Fprintf(w, "Monitor of:\t%s\n", info.MonitorOfSinkName)
						}
					})
				case "card":
					card, err := c.Card(ctx, sel)
					if err != nil {
						return err
					}
					return a.out.print(card, func(w io.Writer) {
						fmt.Fprintf(w, "Card #%s:\t%s\n", card.CardIndex, card.CardName)
						fmt.Fprintf(w, "Driver:\t%s\n", card.Driver)
						fmt.Fprintf(w, "Active profile:\t%s\n", card.ActiveProfileName)
						for _, p := range card.Profiles {
							fmt.Fprintf(w, "  profile %s:\t%s (available: %s)\n", p.Name, p.Description, mark(bool(p.Available)))
						}
						for _, p := range card.Ports {
							fmt.Fprintf(w, "  port %s:\t%s (%s, %s, latency offset %dus)\n", p.Name, p.Description, p.Direction, p.Available, p.LatencyOffset)
						}
					})
				}
				return fmt.Errorf("unknown kind %q, expected sink, source or card", args[0])
			})
		},
	}
}

// device holds what sinks and sources have in common.
type device struct {
	index      proto.Index
	name       string
	desc       string
	driver     string
	state      proto.DeviceState
	spec       proto.SampleSpec
	cvol       proto.ChannelVolumes
	mute       bool
	ports      []proto.Port
	activePort string
	props      proto.PropList
}

func (a *app) device(w io.Writer, d device) {
	fmt.Fprintf(w, "Index:\t%s\n", d.index)
	fmt.Fprintf(w, "Name:\t%s\n", d.name)
	fmt.Fprintf(w, "Description:\t%s\n", d.desc)
	fmt.Fprintf(w, "Driver:\t%s\n", d.driver)
	fmt.Fprintf(w, "State:\t%s\n", d.state)
	fmt.Fprintf(w, "Sample spec:\t%s\n", sampleSpec(d.spec))
	vols := make([]string, len(d.cvol))
	for i, v := range d.cvol {
		vols[i] = fmt.Sprintf("%.0f%%", proto.Volume(v).Percent())
	}
	fmt.Fprintf(w, "Volume:\t%s\n", strings.Join(vols, " "))
	fmt.Fprintf(w, "Muted:\t%s\n", mark(d.mute))
	for _, p := range d.ports {
		line := fmt.Sprintf("  port %s:\t%s (%s)", p.Name, p.Description, p.Available)
		if p.Name == d.activePort {
			line += "  " + a.out.highlight("(active)")
		}
		fmt.Fprintln(w, line)
	}
	for _, k := range d.props.Keys() {
		fmt.Fprintf(w, "  %s:\t%s\n", k, d.props.String(k))
	}
}

func lookupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "lookup <sink|source> <name>",
		Short:     "Print the index of a named device",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"sink", "source"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, c *pulse.Client) error {
				var idx proto.Index
				var err error
				switch args[0] {
				case "sink":
					idx, err = c.LookupSink(ctx, args[1])
				case "source":
					idx, err = c.LookupSource(ctx, args[1])
				default:
					return fmt.Errorf("unknown kind %q, expected sink or source", args[0])
				}
				if err != nil {
					return err
				}
				return a.out.print(map[string]proto.Index{"index": idx}, func(w io.Writer) {
					fmt.Fprintln(w, idx)
				})
			})
		},
	}
}
