package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/PieterD/wol"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp()
	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "failed: %+v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:        "woltest",
		Usage:       "wait for a Wake-on-LAN magic packet",
		HideVersion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "iface",
				Aliases: []string{"i"},
				Usage:   "only accept packets for `INTERFACE`",
			},
			&cli.BoolFlag{
				Name:    "list",
				Aliases: []string{"l"},
				Usage:   "list the available interfaces",
			},
			&cli.StringSliceFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "UDP `PORT` to listen to, may be repeated",
				Value:   []string{strconv.Itoa(wol.DefaultPort)},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log debug messages to stderr",
			},
		},
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("verbose") {
				logrus.SetLevel(logrus.DebugLevel)
			}
			if cmd.Bool("list") {
				return listInterfaces(cmd.Root().Writer, cmd.String("iface"))
			}
			ports, err := parsePorts(cmd.StringSlice("port"))
			if err != nil {
				return err
			}
			rc, err := wol.Wait(ctx, cmd.String("iface"), ports...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.Root().Writer, "WOL packet for %s received from %s\n", rc.HardwareAddr, rc.From)
			return nil
		},
	}
}

func parsePorts(ss []string) ([]int, error) {
	ports := make([]int, 0, len(ss))
	for _, s := range ss {
		p, err := wol.ParsePort(s)
		if err != nil {
			return nil, err
		}
		ports = append(ports, int(p))
	}
	return ports, nil
}

// listInterfaces prints each interface with the hardware address a receiver
// bound to it with -i expects in magic packets. The interface named by
// selected is marked with '*'.
func listInterfaces(w io.Writer, selected string) error {
	ifaces, err := net.Interfaces()
	if err != nil {
		return errors.Wrapf(err, "failed to list interfaces")
	}
	if selected != "" && !slices.ContainsFunc(ifaces, func(iface net.Interface) bool { return iface.Name == selected }) {
		return errors.Errorf("failed to find interface '%s'", selected)
	}
	longestName := 0
	for _, iface := range ifaces {
		if len(iface.Name) > longestName {
			longestName = len(iface.Name)
		}
	}
	for _, iface := range ifaces {
		fmt.Fprintln(w, describeInterface(iface, longestName, selected))
		addrs, err := iface.Addrs()
		if err != nil {
			return errors.Wrapf(err, "failed to fetch addresses for interface '%s'", iface.Name)
		}
		for _, addr := range addrs {
			fmt.Fprintf(w, "    %s: %s\n", addr.Network(), addr)
		}
		fmt.Fprintf(w, "\n")
	}
	return nil
}

func describeInterface(iface net.Interface, width int, selected string) string {
	mark := " "
	if selected != "" && iface.Name == selected {
		mark = "*"
	}
	line := fmt.Sprintf("%s %-*s %3d", mark, width, iface.Name, iface.Index)
	if len(iface.HardwareAddr) != wol.HardwareAddrLen {
		if iface.HardwareAddr != nil {
			line += fmt.Sprintf(" [%s]", iface.HardwareAddr)
		}
		return line + " no ether address, cannot be used with -i"
	}
	var hw wol.HardwareAddr
	copy(hw[:], iface.HardwareAddr)
	return line + fmt.Sprintf(" [%s] wake with: wol %s", iface.HardwareAddr, strings.ToUpper(hw.String()))
}
