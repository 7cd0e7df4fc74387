// 版权所有 2024 PodStudio Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的指标采集能力，覆盖
HTTP、任务与上游 Provider 三个维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制，避免手动管理 Registry。所有指标按 namespace 隔离。

# 核心类型

  - Collector：指标收集器，同时实现 gemini.Recorder 与
    handlers.TaskRecorder。

# 主要能力

  - HTTP 指标：请求总数、请求耗时、请求/响应体大小、进行中请求数，
    按 method/path/status 分组，状态码归类为 2xx/3xx/4xx/5xx。
  - 任务指标：按 task/status 统计执行次数与耗时，status 为
    "success" 或错误码。
  - Provider 指标：按 operation/model/status 统计上游调用次数与耗时。
*/
package metrics
