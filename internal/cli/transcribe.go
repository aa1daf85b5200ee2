package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"speechaudio/internal/logging"
	"speechaudio/internal/model"
	"speechaudio/internal/pipeline"
	"speechaudio/internal/transcript"
	"speechaudio/internal/transcription"
	"speechaudio/internal/upstream/amazon"
)

func newTranscribeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcribe",
		Short: "Speech-to-text helpers (OpenAI, Amazon Transcribe)",
	}
	cmd.AddCommand(
		newTranscribeOpenAICommand(a),
		newAWSListCommand(a),
		newAWSUploadCommand(a),
		newAWSTranscribeCommand(a),
		newAWSDeleteCommand(a),
		newRenderCommand(a),
	)
	return cmd
}

func newTranscribeOpenAICommand(a *app) *cobra.Command {
	var output, language, modelName string
	cmd := &cobra.Command{
		Use:   "openai <file>",
		Short: "Transcribe a local audio file with the OpenAI API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := transcription.New(a.openAI(), a.cfg.TranscriptionModel, a.cfg.TranscriptionTimeout)
			out, err := svc.TranscribeFile(cmd.Context(), args[0], transcription.Options{
				Language: language,
				Model:    modelName,
				Output:   output,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "text file to write (default: input with .txt)")
	cmd.Flags().StringVarP(&language, "language", "l", "", "spoken language hint, e.g. ja")
	cmd.Flags().StringVar(&modelName, "model", "", "transcription model (default: OPENAI_TRANSCRIPTION_MODEL)")
	return cmd
}

func bucketFlags(cmd *cobra.Command, bucket, prefix *string) {
	cmd.Flags().StringVar(bucket, "bucket", "", "S3 bucket")
	cmd.Flags().StringVar(prefix, "prefix", "", "S3 key prefix")
	_ = cmd.MarkFlagRequired("bucket")
	_ = cmd.MarkFlagRequired("prefix")
}

func (a *app) objectStore(cmd *cobra.Command, region string) (*amazon.ObjectStore, amazon.Clients, error) {
	clients, err := a.aws(cmd.Context(), region)
	if err != nil {
		return nil, amazon.Clients{}, err
	}
	return amazon.NewObjectStore(clients.S3, a.awsOptions()...), clients, nil
}

func newAWSListCommand(a *app) *cobra.Command {
	var bucket, prefix string
	cmd := &cobra.Command{
		Use:   "aws-list",
		Short: "List objects under an S3 prefix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _, err := a.objectStore(cmd, "")
			if err != nil {
				return err
			}
			objects, err := store.List(cmd.Context(), bucket, prefix)
			if err != nil {
				return err
			}
			for _, obj := range objects {
				fmt.Fprintln(cmd.OutOrStdout(), obj)
			}
			return nil
		},
	}
	bucketFlags(cmd, &bucket, &prefix)
	return cmd
}

func newAWSUploadCommand(a *app) *cobra.Command {
	var bucket, prefix string
	cmd := &cobra.Command{
		Use:   "aws-upload <file>",
		Short: "Upload a local file to S3 under a prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := a.objectStore(cmd, "")
			if err != nil {
				return err
			}
			key, err := store.Upload(cmd.Context(), bucket, prefix, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded to s3://%s/%s\n", bucket, key)
			return nil
		},
	}
	bucketFlags(cmd, &bucket, &prefix)
	return cmd
}

func newAWSDeleteCommand(a *app) *cobra.Command {
	var bucket, prefix string
	cmd := &cobra.Command{
		Use:   "aws-delete <object>",
		Short: "Delete an object from S3",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := a.objectStore(cmd, "")
			if err != nil {
				return err
			}
			if err := store.Delete(cmd.Context(), bucket, prefix, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted s3://%s/%s/%s\n", bucket, prefix, args[0])
			return nil
		},
	}
	bucketFlags(cmd, &bucket, &prefix)
	return cmd
}

func newAWSTranscribeCommand(a *app) *cobra.Command {
	var (
		bucket, prefix, languages, mediaFormat, region, output string
		waitSeconds                                            int
		dialogue, asJSON                                       bool
	)
	cmd := &cobra.Command{
		Use:   "aws-transcribe <object>",
		Short: "Run Amazon Transcribe on an S3 object and print the transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if waitSeconds <= 0 {
				return fmt.Errorf("--wait-seconds must be > 0")
			}
			store, clients, err := a.objectStore(cmd, region)
			if err != nil {
				return err
			}
			jobs := amazon.NewJobClient(clients.Transcribe, a.awsOptions()...)
			svc := pipeline.New(jobs, store, time.Duration(waitSeconds)*time.Second, a.metrics, logging.WithComponent("pipeline"))

			result, err := svc.Process(cmd.Context(), pipeline.ProcessInput{
				Bucket:      bucket,
				Prefix:      prefix,
				ObjectName:  args[0],
				Languages:   splitList(languages),
				MediaFormat: mediaFormat,
				Dialogue:    dialogue,
			})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(model.JobResponse{
					JobName:    result.JobName,
					Transcript: result.Transcript,
					Mode:       string(result.Mode),
					TimingsMS: model.JobTimings{
						Job:    result.Timings.Job.Milliseconds(),
						Render: result.Timings.Render.Milliseconds(),
						Total:  result.Timings.Total.Milliseconds(),
					},
				})
			}
			return writeText(cmd, output, result.Transcript)
		},
	}
	bucketFlags(cmd, &bucket, &prefix)
	cmd.Flags().StringVar(&languages, "languages", "", "comma separated language codes, e.g. ja-JP,en-US")
	cmd.Flags().StringVar(&mediaFormat, "media-format", "", "media format, e.g. mp3, wav, m4a")
	cmd.Flags().StringVar(&region, "region", "", "AWS region (default: AWS_REGION)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the transcript to a file instead of stdout")
	cmd.Flags().IntVar(&waitSeconds, "wait-seconds", 5, "job polling interval in seconds")
	cmd.Flags().BoolVar(&dialogue, "dialogue", false, "render single-language jobs as a teacher/student script")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the job result as JSON")
	_ = cmd.MarkFlagRequired("languages")
	_ = cmd.MarkFlagRequired("media-format")
	return cmd
}

func newRenderCommand(a *app) *cobra.Command {
	var modeName, output string
	cmd := &cobra.Command{
		Use:   "render <transcript.json>",
		Short: "Render a stored Amazon Transcribe result; use - for stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := transcript.ParseMode(modeName)
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			payload, err := transcript.Decode(r)
			if err != nil {
				return err
			}

			text, err := transcript.Text(payload, mode)
			a.metrics.ObserveRender(string(mode), err)
			if err != nil {
				return err
			}
			return writeText(cmd, output, text)
		},
	}
	cmd.Flags().StringVar(&modeName, "mode", string(transcript.ModeDialogue), "plain, dialogue or stitch")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the text to a file instead of stdout")
	return cmd
}

func writeText(cmd *cobra.Command, output, text string) error {
	if output == "" {
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	}
	if err := os.WriteFile(output, []byte(text), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", output)
	return nil
}
