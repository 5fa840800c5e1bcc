package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goalcheck/goalcheck/internal/ads"
	"github.com/goalcheck/goalcheck/internal/checklist"
	"github.com/goalcheck/goalcheck/internal/flow"
	"github.com/goalcheck/goalcheck/internal/locale"
	"github.com/goalcheck/goalcheck/internal/logutil"
	"github.com/goalcheck/goalcheck/internal/stream"
	"github.com/goalcheck/goalcheck/internal/tui"
)

// historyOwner tags checklists kept in the local state database.
const historyOwner = "local"

func newQuestionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "questions <goal>",
		Short: "Stream the clarifying questions for a goal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(ctx); err != nil {
				return err
			}
			goal, err := checklist.NormalizeGoal(strings.Join(args, " "))
			if err != nil {
				return err
			}
			if err := a.requireSession(cmd, goal); err != nil {
				return err
			}
			live := io.Discard
			if a.format() == formatTable {
				live = out(cmd)
			}
			questions, err := a.streamQuestions(cmd, goal, live)
			if err != nil {
				return err
			}
			if handled, err := writeOutput(out(cmd), a.format(), questions); handled || err != nil {
				return err
			}
			return nil
		},
	}
}

// streamQuestions prints questions to w as they arrive and returns them in
// display order.
func (a *app) streamQuestions(cmd *cobra.Command, goal string, w io.Writer) ([]checklist.Question, error) {
	fmt.Fprintln(w, a.printer.Sprintf(locale.MsgQuestions, goal))
	shown := map[string]bool{}
	res, err := a.runner.Questions(cmd.Context(), checklist.QuestionsRequest{Goal: goal}, stream.Callbacks[checklist.Question]{
		OnUpdate: func(p stream.Progress[checklist.Question]) {
			for _, q := range p.Items {
				if !shown[q.ID] {
					shown[q.ID] = true
					renderQuestion(w, len(shown), q)
				}
			}
		},
	})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (a *app) requireSession(cmd *cobra.Command, goal string) error {
	err := a.runner.RequireSession(cmd.Context(), goal)
	if errors.Is(err, flow.ErrLoginRequired) {
		fmt.Fprintln(errOut(cmd), a.printer.Sprintf(locale.MsgLoginRequired))
	}
	return err
}

type generateOptions struct {
	answers     []string
	answersFile string
	noQuestions bool
	interactive bool
	useTUI      bool
	resume      bool
	noSave      bool
}

func newGenerateCmd(a *app) *cobra.Command {
	var opts generateOptions
	cmd := &cobra.Command{
		Use:   "generate [goal]",
		Short: "Generate a checklist for a goal",
		Long: `Generate streams a checklist for the goal. Answers to the clarifying
questions come from --answer, --answers-file or an interactive prompt.`,
		Example: `  goalcheck generate "run a marathon" --answer timeline=3-6 --answer focus=Health
  goalcheck generate --resume`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			goal := strings.Join(args, " ")
			if opts.resume {
				pending, err := a.runner.Resume(cmd.Context())
				if err != nil {
					return err
				}
				if pending != "" {
					fmt.Fprintln(errOut(cmd), a.printer.Sprintf(locale.MsgResumingGoal, pending))
					goal = pending
				}
			}
			if strings.TrimSpace(goal) == "" {
				return errors.New("a goal is required")
			}
			return a.generate(cmd, goal, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringArrayVar(&opts.answers, "answer", nil, "Answer as id=value, comma separated for multiple values (repeatable)")
	flags.StringVar(&opts.answersFile, "answers-file", "", "YAML or JSON file mapping question ids to answers")
	flags.BoolVar(&opts.noQuestions, "no-questions", false, "Skip the clarifying questions")
	flags.BoolVarP(&opts.interactive, "interactive", "i", false, "Ask the clarifying questions on the terminal")
	flags.BoolVar(&opts.useTUI, "tui", false, "Show the full-screen progressive view")
	flags.BoolVar(&opts.resume, "resume", false, "Continue the goal saved before the last login")
	flags.BoolVar(&opts.noSave, "no-save", false, "Do not save the checklist on the server or in local history")
	return cmd
}

type generateResult struct {
	ChecklistID string           `json:"checklistId,omitempty"`
	Goal        string           `json:"goal"`
	Locale      string           `json:"locale"`
	Items       []checklist.Item `json:"items"`
	Orphaned    []string         `json:"orphaned,omitempty"`
	Ad          *ads.Slot        `json:"ad,omitempty"`
}

func (a *app) generate(cmd *cobra.Command, rawGoal string, opts generateOptions) error {
	ctx := cmd.Context()
	goal, err := checklist.NormalizeGoal(rawGoal)
	if err != nil {
		return err
	}
	if err := a.requireSession(cmd, goal); err != nil {
		return err
	}

	answers, err := collectAnswers(opts.answersFile, opts.answers)
	if err != nil {
		return err
	}
	interactive := opts.interactive || (len(answers) == 0 && !opts.noQuestions && isTerminal(cmd.InOrStdin()))
	if interactive && !opts.noQuestions {
		live := out(cmd)
		if a.format() != formatTable {
			live = errOut(cmd)
		}
		questions, err := a.streamQuestions(cmd, goal, live)
		if err != nil {
			return err
		}
		if answers, err = askQuestions(cmd, a, questions, answers); err != nil {
			return err
		}
	}

	plan := ""
	if user, err := a.client.Me(ctx); err == nil {
		plan = user.Plan
	} else if ExitCode(err) == ExitAuth {
		return err
	}
	slot, showAd := a.adSlot(plan, ads.KindFooter)

	req := checklist.ChecklistRequest{Goal: goal, Answers: answers, Locale: a.loc.String(), Save: !opts.noSave}
	var res stream.Result[checklist.Item]
	if opts.useTUI {
		footer := ""
		if showAd {
			footer = slot.Text
		}
		m, err := tui.Run(ctx, tui.Options{Goal: goal, Theme: a.settings.Theme, Locale: a.loc, Footer: footer},
			func(sctx context.Context, cb stream.Callbacks[checklist.Item]) error {
				var err error
				res, err = a.runner.Checklist(sctx, req, cb)
				return err
			})
		if err != nil {
			return err
		}
		if m.Cancelled() {
			return context.Canceled
		}
		if m.Err() != nil {
			return m.Err()
		}
	} else {
		res, err = a.streamChecklist(cmd, goal, req)
		if err != nil {
			return err
		}
	}

	result := generateResult{ChecklistID: res.ChecklistID, Goal: goal, Locale: a.loc.String(), Items: res.Items, Orphaned: res.Orphaned}
	if showAd {
		result.Ad = &slot
	}
	if !opts.noSave {
		if err := a.saveHistory(cmd, &result); err != nil {
			a.logger.Warn("history_save_failed", logutil.Fields{"error": err.Error()})
		}
	}
	if handled, err := writeOutput(out(cmd), a.format(), result); handled || err != nil {
		return err
	}
	if opts.useTUI {
		return nil
	}
	w := out(cmd)
	fmt.Fprintln(w)
	renderItems(w, a.printer, result.Items)
	fmt.Fprintln(w, a.printer.Sprintf(locale.MsgChecklistReady, len(result.Items)))
	if result.ChecklistID != "" {
		fmt.Fprintln(w, a.printer.Sprintf(locale.MsgSaved, result.ChecklistID))
	}
	if showAd {
		renderSlot(w, a.printer, slot)
	}
	return nil
}

// streamChecklist prints items as they become ready. Chunks and progress go
// to stderr so stdout stays parseable for json and yaml.
func (a *app) streamChecklist(cmd *cobra.Command, goal string, req checklist.ChecklistRequest) (stream.Result[checklist.Item], error) {
	live := out(cmd)
	if a.format() != formatTable {
		live = errOut(cmd)
	}
	fmt.Fprintln(errOut(cmd), a.printer.Sprintf(locale.MsgGenerating, goal))
	shown := map[string]bool{}
	return a.runner.Checklist(cmd.Context(), req, stream.Callbacks[checklist.Item]{
		OnChunk: func(chunk string) {
			fmt.Fprintf(errOut(cmd), "... %s\n", chunk)
		},
		OnUpdate: func(p stream.Progress[checklist.Item]) {
			if p.Status != stream.StatusItemReady {
				return
			}
			for _, it := range p.Items {
				if !shown[it.ID] {
					shown[it.ID] = true
					fmt.Fprintf(live, "+ [%d/%d] %s\n", len(shown), p.Total, it.Title)
				}
			}
		},
	})
}

func (a *app) saveHistory(cmd *cobra.Command, result *generateResult) error {
	id := result.ChecklistID
	if id == "" {
		id = uuid.NewString()
	}
	return a.store.SaveChecklist(cmd.Context(), historyOwner, &checklist.Checklist{
		ID:        id,
		Goal:      result.Goal,
		Locale:    result.Locale,
		Items:     result.Items,
		CreatedAt: time.Now().UTC(),
	})
}

// collectAnswers merges the answers file with --answer flags; flags win.
func collectAnswers(path string, flags []string) (checklist.Answers, error) {
	answers := checklist.Answers{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var raw map[string]interface{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		for id, value := range raw {
			answers[id] = answerValues(value)
		}
	}
	for _, flag := range flags {
		id, values, err := checklist.ParseAnswer(flag)
		if err != nil {
			return nil, err
		}
		answers[id] = values
	}
	if len(answers) == 0 {
		return nil, nil
	}
	return answers, nil
}

func answerValues(value interface{}) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return []string{fmt.Sprint(v)}
	}
}

// askQuestions prompts for every question not already answered. Options can
// be picked by number.
func askQuestions(cmd *cobra.Command, a *app, questions []checklist.Question, answers checklist.Answers) (checklist.Answers, error) {
	if answers == nil {
		answers = checklist.Answers{}
	}
	sorted := append([]checklist.Question(nil), questions...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	lines := newLineReader(cmd.InOrStdin())
	label := a.printer.Sprintf(locale.MsgAnswerPrompt)
	for _, q := range sorted {
		if _, ok := answers[q.ID]; ok {
			continue
		}
		for {
			input, err := lines.prompt(errOut(cmd), fmt.Sprintf("%s [%s]: ", label, q.ID))
			if err != nil {
				return nil, fmt.Errorf("answer %s: %w", q.ID, err)
			}
			values := pickOptions(q, input)
			if len(values) == 0 && q.Required {
				continue
			}
			if len(values) > 0 {
				answers[q.ID] = values
			}
			if err := checklist.ValidateAnswers([]checklist.Question{q}, checklist.Answers{q.ID: values}); err != nil && len(values) > 0 {
				fmt.Fprintln(errOut(cmd), err)
				delete(answers, q.ID)
				continue
			}
			break
		}
	}
	return answers, nil
}

func pickOptions(q checklist.Question, input string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	if q.Type == checklist.QuestionText {
		return []string{strings.TrimSpace(input)}
	}
	var values []string
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if n, err := strconv.Atoi(part); err == nil && n >= 1 && n <= len(q.Options) {
			part = q.Options[n-1]
		}
		values = append(values, part)
	}
	return values
}
