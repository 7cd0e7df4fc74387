// Copyright (c) PodStudio Authors.
// Licensed under the MIT License.

/*
Package testutil 提供 podstudio 测试的共享工具和辅助函数。

# 概述

testutil 包为各包的单元测试提供统一的辅助能力，避免重复实现相似的
测试基础设施。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext，
    自动注册 Cleanup 防止泄漏
  - 异步断言: AssertEventuallyTrue / WaitFor，支持超时轮询等待条件满足
  - 数据辅助: MustJSON / MustParseJSON
  - 上游模拟: GeminiServer 以固定响应模拟 generateContent 与 predict
    端点，并统计调用次数
*/
package testutil
