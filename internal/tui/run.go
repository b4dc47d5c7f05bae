package tui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"tam-chat/internal/chat"
)

// Result 返回 TUI 退出时的对话快照。
type Result struct {
	Messages []chat.Message
}

// Run 封装 Bubble Tea 入口，返回最终的 UI 结果。
func Run(opts Options, programOptions ...tea.ProgramOption) (Result, error) {
	if opts.Transport == nil {
		return Result{}, errors.New("tui: transport is required")
	}
	if len(programOptions) == 0 {
		programOptions = append(programOptions, tea.WithAltScreen())
	}
	program := tea.NewProgram(New(opts), programOptions...)
	final, err := program.Run()
	if err != nil {
		return Result{}, err
	}
	m, ok := final.(*Model)
	if !ok {
		return Result{}, errors.New("unexpected tui model")
	}
	return Result{Messages: m.Messages()}, nil
}
