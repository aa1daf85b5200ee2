package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"speechaudio/internal/tts"
)

func newTTSCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tts",
		Short: "Text-to-speech helpers",
	}
	cmd.AddCommand(newSpeakersCommand(a), newSynthesizeCommand(a))
	return cmd
}

func newSpeakersCommand(a *app) *cobra.Command {
	var lang, engineName string
	cmd := &cobra.Command{
		Use:   "speakers",
		Short: "List the voices an engine offers for a language",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := a.engine(cmd.Context(), engineName)
			if err != nil {
				return err
			}
			voices, err := engine.Voices(cmd.Context(), lang)
			if err != nil {
				return err
			}
			for _, v := range voices {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", "", "language code, e.g. en-US")
	cmd.Flags().StringVar(&engineName, "engine", "neural", "engine name (neural, long-form, openai-tts-1, ...)")
	_ = cmd.MarkFlagRequired("lang")
	return cmd
}

func newSynthesizeCommand(a *app) *cobra.Command {
	var (
		lang, input, output, speaker, engineName string
		speed, gain                              float64
	)
	cmd := &cobra.Command{
		Use:   "synthesize",
		Short: "Synthesize a script file into an MP3",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			text, err := tts.ReadScript(input)
			if err != nil {
				return err
			}
			if output == "" {
				output = replaceExt(input, ".mp3")
			}
			var rate string
			if cmd.Flags().Changed("speed") {
				rate = strconv.FormatFloat(speed, 'f', -1, 64)
			}

			synth, err := a.synthesizer(cmd.Context(), engineName, lang, speaker)
			if err != nil {
				return err
			}
			if err := synth.MakeAudioFile(cmd.Context(), text, output, rate, gain); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", "", "language code, e.g. en-US")
	cmd.Flags().StringVarP(&input, "input", "i", "", "script file; lines starting with # are skipped")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output MP3 (default: input with .mp3)")
	cmd.Flags().StringVar(&speaker, "speaker", "", "voice name (default: first voice offered)")
	cmd.Flags().StringVar(&engineName, "engine", "neural", "engine name")
	cmd.Flags().Float64Var(&speed, "speed", 1.0, "speaking rate multiplier")
	cmd.Flags().Float64Var(&gain, "gain", 0, "gain in dB applied to the result")
	_ = cmd.MarkFlagRequired("lang")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
