package demo

import (
	"logpanel/internal/model"
	"logpanel/internal/store"
)

// Sample is a canned batch of log entries.
type Sample struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`

	generate func(*store.Store)
}

func opts(category, source string) *model.CreateOptions {
	return &model.CreateOptions{Category: category, Source: source}
}

func defaultSamples() []Sample {
	return []Sample{
		{
			ID: "system", Name: "系统日志", Description: "模拟系统启动和运行日志", Icon: "mdi-server", Color: "blue",
			generate: func(s *store.Store) {
				s.Info("系统启动完成", opts("System", "Main"))
				s.Debug("加载配置文件", opts("System", "Config"))
				s.Info("数据库连接成功", opts("Database", "Connection"))
				s.Warn("内存使用率较高 (78%)", opts("System", "Monitor"))
			},
		},
		{
			ID: "user", Name: "用户操作", Description: "模拟用户操作和交互日志", Icon: "mdi-account", Color: "green",
			generate: func(s *store.Store) {
				s.Info("用户登录成功", &model.CreateOptions{
					Category: "Auth", Source: "Login",
					Details: map[string]any{"userId": 123},
				})
				s.Debug("页面访问: /dashboard", opts("Navigation", "Router"))
				s.Info("用户点击按钮", opts("UI", "Button"))
				s.Debug("表单提交成功", opts("Form", "Submit"))
			},
		},
		{
			ID: "api", Name: "API 调用", Description: "模拟 API 请求和响应日志", Icon: "mdi-api", Color: "purple",
			generate: func(s *store.Store) {
				s.Info("GET /api/users - 200 OK", opts("HTTP", "API"))
				s.Warn("POST /api/data - 429 Too Many Requests", opts("HTTP", "API"))
				s.Error("GET /api/profile - 500 Internal Server Error", &model.CreateOptions{
					Category: "HTTP", Source: "API",
					Details: map[string]any{"endpoint": "/api/profile", "status": 500},
				})
				s.Info("PUT /api/settings - 200 OK", opts("HTTP", "API"))
			},
		},
		{
			ID: "error", Name: "错误调试", Description: "模拟各种错误和异常日志", Icon: "mdi-bug", Color: "red",
			generate: func(s *store.Store) {
				s.Error("未捕获的异常", &model.CreateOptions{
					Category: "Error", Source: "Runtime",
					Stack: "Error: Uncaught exception\n  at Component.render\n  at VueComponent.update",
				})
				s.Error("网络请求失败", &model.CreateOptions{
					Category: "Network", Source: "Fetch",
					Details: map[string]any{"error": "NETWORK_ERROR", "timeout": true},
				})
				s.Warn("废弃的 API 调用", opts("Deprecated", "API"))
				s.Error("验证失败", opts("Validation", "Form"))
			},
		},
	}
}
