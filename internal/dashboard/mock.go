package dashboard

import (
	"fmt"
	"time"
)

// Rand is the randomness source used by refreshes.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

const (
	DefaultRefreshInterval = 30 // seconds
	MaxActivities          = 20
	RecentActivities       = 5
	// ActivityChance is the probability that a refresh records a new activity.
	ActivityChance = 0.3
)

func defaultStats() []StatCard {
	return []StatCard{
		{ID: "total-users", Title: "总用户数", Value: 1234, Icon: "mdi-account-group", Color: "primary", Format: FormatNumber},
		{ID: "active-users", Title: "活跃用户", Value: 567, Icon: "mdi-account-check", Color: "success", Format: FormatNumber},
		{ID: "orders", Title: "今日订单", Value: 89, Icon: "mdi-cart", Color: "warning", Format: FormatNumber},
		{ID: "revenue", Title: "今日收入", Value: 12345, Icon: "mdi-currency-cny", Color: "info", Format: FormatCurrency},
	}
}

func defaultActivities(now time.Time) []Activity {
	return []Activity{
		{ID: "seed-1", Title: "新用户注册", Description: "用户 alice 完成注册", Timestamp: now.Add(-5 * time.Minute), Icon: "mdi-account-plus"},
		{ID: "seed-2", Title: "订单完成", Description: "订单 #1024 已支付", Timestamp: now.Add(-15 * time.Minute), Icon: "mdi-cart-check"},
		{ID: "seed-3", Title: "系统更新", Description: "系统配置已更新", Timestamp: now.Add(-1 * time.Hour), Icon: "mdi-update"},
	}
}

// randomStats returns fresh values keyed by stat id.
func randomStats(r Rand) map[string]float64 {
	return map[string]float64{
		"total-users":  float64(1000 + r.IntN(1000)),
		"active-users": float64(200 + r.IntN(600)),
		"orders":       float64(50 + r.IntN(100)),
		"revenue":      float64(5000 + r.IntN(20000)),
	}
}

var activityTemplates = []struct {
	title, description, icon string
}{
	{"新用户注册", "用户 user%d 完成注册", "mdi-account-plus"},
	{"订单完成", "订单 #%d 已支付", "mdi-cart-check"},
	{"数据备份", "备份任务 %d 已完成", "mdi-database-check"},
	{"安全告警", "检测到 %d 次异常登录尝试", "mdi-shield-alert"},
	{"系统更新", "配置版本 %d 已发布", "mdi-update"},
}

func randomActivity(r Rand, now time.Time) Activity {
	tpl := activityTemplates[r.IntN(len(activityTemplates))]
	return Activity{
		Title:       tpl.title,
		Description: fmt.Sprintf(tpl.description, 1+r.IntN(9999)),
		Timestamp:   now,
		Icon:        tpl.icon,
	}
}

// DefaultQuickActions lists the shortcuts shown on the dashboard.
func DefaultQuickActions() []QuickAction {
	return []QuickAction{
		{ID: "add-user", Title: "添加用户", Icon: "mdi-account-plus", Color: "primary"},
		{ID: "view-reports", Title: "查看报表", Icon: "mdi-chart-line", Color: "success"},
		{ID: "export-data", Title: "导出数据", Icon: "mdi-download", Color: "info"},
		{ID: "settings", Title: "系统设置", Icon: "mdi-cog", Color: "grey"},
	}
}
