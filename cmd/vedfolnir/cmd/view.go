package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/vedfolnir/console/internal/output"
	"github.com/vedfolnir/console/internal/viewport"

	"github.com/spf13/cobra"
)

var viewCmd = &cobra.Command{
	Use:   "view <image-url>",
	Short: "Inspect an image with pan and zoom controls",
	Long: `Inspect an image with pan and zoom controls.
Commands: + (zoom in), - (zoom out), scale <n>, pan <dx> <dy>,
tap (double tap resets), reset, show, quit.`,
	Run:  viewRun,
	Args: cobra.ExactArgs(1),
}

func init() {
	rootCmd.AddCommand(viewCmd)
}

func viewRun(cmd *cobra.Command, args []string) {
	imageURL := args[0]

	vp := viewport.New(viewport.WithOnChange(func(t viewport.Transform) {
		printTransform(t)
	}))

	output.Infof("Viewing: %s", output.Cyan(imageURL))
	printTransform(vp.Transform())
	output.Blank()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(output.Stdout, "> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "+", "in":
			vp.StepIn()
		case "-", "out":
			vp.StepOut()
		case "scale":
			if len(fields) != 2 {
				output.Warningf("usage: scale <n>")
				continue
			}
			s, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				output.Warningf("invalid scale: %s", fields[1])
				continue
			}
			vp.SetScale(s)
		case "pan":
			if len(fields) != 3 {
				output.Warningf("usage: pan <dx> <dy>")
				continue
			}
			dx, errX := strconv.ParseFloat(fields[1], 64)
			dy, errY := strconv.ParseFloat(fields[2], 64)
			if errX != nil || errY != nil {
				output.Warningf("invalid pan offsets")
				continue
			}
			vp.Pan(dx, dy)
		case "tap":
			if vp.Tap() {
				output.Infof("Double tap, view reset")
			}
		case "reset":
			vp.Reset()
		case "show":
			printTransform(vp.Transform())
		case "quit", "q", "exit":
			return
		default:
			output.Warningf("unknown command: %s", fields[0])
		}
	}
}

func printTransform(t viewport.Transform) {
	output.KeyValue("Scale", fmt.Sprintf("%.2f", t.Scale))
	output.KeyValue("Pan", fmt.Sprintf("(%.0f, %.0f)", t.PanX, t.PanY))
}
