// Copyright (c) PodStudio Authors.
// Licensed under the MIT License.

/*
Package studio 实现 PodStudio 的五个设计任务。

# 概述

每个任务对 Provider 只发起一次调用：构造固定的提示词、内容分片与
输出 Schema，然后从响应中提取并重塑所需字段。任务之间不共享状态。

# 任务

  - generateImage    — Imagen 生成 1:1 PNG 图像，返回 base64 列表
  - removeBackground — 抠图到透明背景，返回 data URI
  - applyDesign      — 将设计图合成到空白产品样机，返回裸 base64
  - generateSeo      — 结构化 JSON 输出的商品标题、描述、卖点与标签
  - generateAltText  — ADA 兼容的替代文本

# 类型化分发

Task[P, R] 将任务名绑定到强类型处理函数；Registry 由 NewRegistry
一次性注册 AllTasks 中的全部任务，分发器只做名字查找。
*/
package studio
