package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"speechaudio/internal/lesson"
	"speechaudio/internal/media"
)

func newAudioCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audio",
		Short: "Audio processing helpers",
	}
	cmd.AddCommand(
		newCombineCommand(a),
		newSpeedCommand(a),
		newSplitSilenceCommand(a),
		newSplitDurationCommand(a),
		newTrimCommand(a),
		newTrimSilenceCommand(a),
		newJoinCommand(a),
		newAddNumberCommand(a),
		newTagAlbumCommand(a),
		newBeepCommand(a),
	)
	return cmd
}

func milliseconds(ms int) time.Duration { return time.Duration(ms) * time.Millisecond }

func newCombineCommand(a *app) *cobra.Command {
	var (
		speed, artist              string
		gain                       float64
		repeatQuestion, addNumbers bool
		pauseMS, sectionUnit       int
	)
	cmd := &cobra.Command{
		Use:   "combine <raw_dir> <out_dir>",
		Short: "Build section files from <n>-Q-*.mp3 / <n>-A-*.mp3 recordings",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, ans, err := lesson.ParseSpeedPair(speed)
			if err != nil {
				return err
			}
			_, err = a.lessonBuilder().BuildSections(cmd.Context(), lesson.SectionOptions{
				InputDir:       args[0],
				OutputDir:      args[1],
				QuestionSpeed:  q,
				AnswerSpeed:    ans,
				Gain:           gain,
				RepeatQuestion: repeatQuestion,
				Pause:          milliseconds(pauseMS),
				AddNumberAudio: addNumbers,
				SectionUnit:    sectionUnit,
				Artist:         artist,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Combined into %s\n", args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&speed, "speed", "1.0:1.0", "question:answer speed")
	cmd.Flags().Float64Var(&gain, "gain", 0, "gain in dB")
	cmd.Flags().BoolVar(&repeatQuestion, "repeat-question", false, "play each question twice")
	cmd.Flags().IntVar(&pauseMS, "pause-duration", 500, "pause between question and answer in ms")
	cmd.Flags().BoolVar(&addNumbers, "add-number-audio", false, "announce the first ordinal of each section")
	cmd.Flags().IntVar(&sectionUnit, "section-unit", lesson.DefaultSectionUnit, "ordinals per section file")
	cmd.Flags().StringVar(&artist, "artist", media.DefaultArtist, "artist tag")
	return cmd
}

func newSpeedCommand(a *app) *cobra.Command {
	var (
		speed, pitchShift float64
		ffmpeg            string
	)
	cmd := &cobra.Command{
		Use:   "speed <input> <out_dir>",
		Short: "Change playback speed, optionally shifting pitch",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := a.runner(ffmpeg)
			if err := runner.Available(); err != nil {
				return err
			}
			out, err := runner.ChangeSpeed(cmd.Context(), args[0], args[1], speed, pitchShift)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", out)
			return nil
		},
	}
	cmd.Flags().Float64Var(&speed, "speed", 0, "playback speed multiplier")
	cmd.Flags().Float64Var(&pitchShift, "pitch-shift", 0, "semitones after the speed change")
	cmd.Flags().StringVar(&ffmpeg, "ffmpeg", "", "ffmpeg binary (default: FFMPEG_PATH)")
	_ = cmd.MarkFlagRequired("speed")
	return cmd
}

func splitFlags(cmd *cobra.Command, in *media.SplitInput) {
	cmd.Flags().StringVarP(&in.OutputDir, "output-dir", "d", "split_audio_files", "directory for the segments")
	cmd.Flags().StringVar(&in.Album, "album", "Split audio", "album tag")
	cmd.Flags().StringVar(&in.TitlePrefix, "title", "", "title prefix (default: input file name)")
}

func printFiles(cmd *cobra.Command, files []string) {
	for _, f := range files {
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", f)
	}
}

func newSplitSilenceCommand(a *app) *cobra.Command {
	var (
		in           media.SplitInput
		minSilenceMS int
		threshold    float64
	)
	cmd := &cobra.Command{
		Use:   "split-silence <input>",
		Short: "Split a file at silences",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Input = args[0]
			files, err := a.runner("").SplitBySilence(cmd.Context(), in, milliseconds(minSilenceMS), threshold)
			if err != nil {
				return err
			}
			printFiles(cmd, files)
			return nil
		},
	}
	splitFlags(cmd, &in)
	cmd.Flags().IntVar(&minSilenceMS, "min-silence-len", 800, "shortest silence to split at, in ms")
	cmd.Flags().Float64Var(&threshold, "silence-thresh", -20, "silence threshold in dBFS")
	return cmd
}

func newSplitDurationCommand(a *app) *cobra.Command {
	var (
		in             media.SplitInput
		minutes        float64
		overlapSeconds int
	)
	cmd := &cobra.Command{
		Use:   "split-duration <input>",
		Short: "Split a file into fixed-length segments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Input = args[0]
			segment := time.Duration(minutes * float64(time.Minute))
			overlap := time.Duration(overlapSeconds) * time.Second
			files, err := a.runner("").SplitByDuration(cmd.Context(), in, segment, overlap)
			if err != nil {
				return err
			}
			printFiles(cmd, files)
			return nil
		},
	}
	splitFlags(cmd, &in)
	cmd.Flags().Float64VarP(&minutes, "segment-minutes", "m", 0, "segment length in minutes")
	cmd.Flags().IntVar(&overlapSeconds, "overlap", 5, "overlap between segments in seconds")
	_ = cmd.MarkFlagRequired("segment-minutes")
	return cmd
}

func newTrimCommand(a *app) *cobra.Command {
	var (
		output           string
		offset, tailTrim int
	)
	cmd := &cobra.Command{
		Use:   "trim <input>",
		Short: "Cut milliseconds from the start and end of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output
			if out == "" {
				out = replaceExt(args[0], ".clipped.mp3")
			}
			if err := a.runner("").Trim(cmd.Context(), args[0], out, milliseconds(offset), milliseconds(tailTrim)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.clipped.mp3)")
	cmd.Flags().IntVar(&offset, "offset", 0, "ms to trim from the start")
	cmd.Flags().IntVar(&tailTrim, "tail-offset", 0, "ms to trim from the end")
	return cmd
}

func newTrimSilenceCommand(a *app) *cobra.Command {
	var (
		output                string
		minSilence, threshold float64
	)
	cmd := &cobra.Command{
		Use:   "trim-silence <input>",
		Short: "Remove long silences",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output
			if out == "" {
				out = replaceExt(args[0], ".trimmed.mp3")
			}
			if err := a.runner("").TrimSilence(cmd.Context(), args[0], out, minSilence, threshold); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.trimmed.mp3)")
	cmd.Flags().Float64Var(&minSilence, "min-silence", 1.0, "shortest silence to remove, in seconds")
	cmd.Flags().Float64Var(&threshold, "threshold-db", -20, "silence threshold in dB")
	return cmd
}

func newJoinCommand(a *app) *cobra.Command {
	var (
		output    string
		tags      media.Tags
		silenceMS int
	)
	cmd := &cobra.Command{
		Use:   "join <input>...",
		Short: "Concatenate files into one tagged MP3",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.runner("").Join(cmd.Context(), args, output, tags, milliseconds(silenceMS)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	cmd.Flags().StringVar(&tags.Title, "title", "", "title tag")
	cmd.Flags().StringVar(&tags.Album, "album", "", "album tag")
	cmd.Flags().StringVar(&tags.Artist, "artist", "", "artist tag")
	cmd.Flags().IntVarP(&silenceMS, "silence", "s", 0, "silence between tracks in ms")
	for _, name := range []string{"output", "title", "album", "artist"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newAddNumberCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add-number <in_dir> <out_dir>",
		Short: "Prefix each MP3 with its spoken ordinal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := a.lessonBuilder().AddNumbers(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			printFiles(cmd, files)
			return nil
		},
	}
}

func newTagAlbumCommand(a *app) *cobra.Command {
	var opts lesson.TagOptions
	cmd := &cobra.Command{
		Use:   "tag-album <path>",
		Short: "Retag a file or every audio file in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Path = args[0]
			files, err := a.lessonBuilder().TagAlbum(cmd.Context(), opts)
			if err != nil {
				return err
			}
			printFiles(cmd, files)
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.Album, "album", "a", "", "album tag")
	cmd.Flags().StringVar(&opts.Title, "title", "", "title tag (single file only)")
	cmd.Flags().StringVar(&opts.Artist, "artist", media.DefaultArtist, "artist tag")
	cmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "o", "output", "directory for the tagged files; empty tags in place")
	_ = cmd.MarkFlagRequired("album")
	return cmd
}

func newBeepCommand(a *app) *cobra.Command {
	var (
		in      media.BeepInput
		seconds float64
	)
	cmd := &cobra.Command{
		Use:   "beep",
		Short: "Generate a short sine beep",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in.Duration = time.Duration(seconds * float64(time.Second))
			if err := a.runner("").Beep(cmd.Context(), in); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", in.Output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in.Output, "output", "o", "beep.mp3", "output file")
	cmd.Flags().Float64Var(&in.Frequency, "frequency", 880, "tone frequency in Hz")
	cmd.Flags().Float64Var(&seconds, "duration", 0.25, "length in seconds")
	cmd.Flags().Float64Var(&in.Gain, "gain-db", 10, "gain in dB")
	return cmd
}
