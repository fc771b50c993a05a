package demo

import (
	"fmt"
	"strings"
)

// Mode names a demo scenario.
type Mode string

// Demo modes.
const (
	ModeBasic       Mode = "basic"
	ModeAdvanced    Mode = "advanced"
	ModeIntegration Mode = "integration"
)

// ParseMode validates a mode name.
func ParseMode(name string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(name))); m {
	case ModeBasic, ModeAdvanced, ModeIntegration:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownMode, name)
	}
}

// PanelOptions is the panel configuration a scenario applies.
type PanelOptions struct {
	Width        int  `json:"width"`
	MaxLogs      int  `json:"maxLogs"`
	AutoScroll   bool `json:"autoScroll"`
	EnableFilter bool `json:"enableFilter"`
	EnableExport bool `json:"enableExport"`
}

// OptionsPatch updates the non-nil fields of PanelOptions.
type OptionsPatch struct {
	Width        *int  `json:"width,omitempty"`
	MaxLogs      *int  `json:"maxLogs,omitempty"`
	AutoScroll   *bool `json:"autoScroll,omitempty"`
	EnableFilter *bool `json:"enableFilter,omitempty"`
	EnableExport *bool `json:"enableExport,omitempty"`
}

func (p OptionsPatch) apply(o PanelOptions) PanelOptions {
	if p.Width != nil {
		o.Width = *p.Width
	}
	if p.MaxLogs != nil {
		o.MaxLogs = *p.MaxLogs
	}
	if p.AutoScroll != nil {
		o.AutoScroll = *p.AutoScroll
	}
	if p.EnableFilter != nil {
		o.EnableFilter = *p.EnableFilter
	}
	if p.EnableExport != nil {
		o.EnableExport = *p.EnableExport
	}
	return o
}

// Scenario describes a demo mode and the panel options it applies.
type Scenario struct {
	ID          Mode         `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Icon        string       `json:"icon"`
	Color       string       `json:"color"`
	Config      PanelOptions `json:"config"`
}

func defaultScenarios() []Scenario {
	return []Scenario{
		{
			ID: ModeBasic, Title: "基础演示",
			Description: "展示日志面板的基本功能：记录、显示、过滤、导出",
			Icon:        "mdi-play-circle", Color: "primary",
			Config: PanelOptions{Width: 400, MaxLogs: 100, AutoScroll: true, EnableFilter: true, EnableExport: true},
		},
		{
			ID: ModeAdvanced, Title: "高级功能",
			Description: "演示高级功能：分类管理、详情查看、快捷键操作",
			Icon:        "mdi-cog", Color: "success",
			Config: PanelOptions{Width: 500, MaxLogs: 500, AutoScroll: true, EnableFilter: true, EnableExport: true},
		},
		{
			ID: ModeIntegration, Title: "集成演示",
			Description: "展示与其他系统的集成：API 监控、实时告警、性能跟踪",
			Icon:        "mdi-network", Color: "warning",
			Config: PanelOptions{Width: 600, MaxLogs: 2000, AutoScroll: false, EnableFilter: true, EnableExport: true},
		},
	}
}

func defaultPanelOptions() PanelOptions {
	return PanelOptions{Width: 400, MaxLogs: 1000, AutoScroll: true, EnableFilter: true, EnableExport: true}
}
