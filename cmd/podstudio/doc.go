// Copyright (c) PodStudio Authors.
// Licensed under the MIT License.

/*
Package main 提供 PodStudio 服务端程序入口。

# 概述

cmd/podstudio 是 PodStudio 的可执行入口，提供任务 API 服务、健康检查和
版本查询等子命令。程序支持 YAML 配置文件加载、结构化日志（zap）、
Prometheus 指标采集与 OpenTelemetry 链路追踪。

# 核心类型

  - Server           — 主服务器，管理 API、Metrics 双端口及优雅关闭
  - Middleware       — HTTP 中间件函数签名 func(http.Handler) http.Handler
  - HTTPRecorder     — MetricsMiddleware 依赖的指标接口

# 主要能力

  - 子命令：serve（启动服务）、version、health
  - 中间件链：Recovery、RequestID、SecurityHeaders、OTelTracing、
    MetricsMiddleware、RequestLogger、CORS、APIKeyAuth、JWTAuth、RateLimiter
  - Metrics 服务器：独立端口暴露 /metrics（Prometheus）
  - 优雅关闭：信号监听 → 并行关闭 API 与 Metrics → 刷新遥测
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
