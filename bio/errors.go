//
//
// Tencent is pleased to support the open source community by making tRPC available.
//
// Copyright (C) 2023 Tencent.
// All rights reserved.
//
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the  Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

package bio

import (
	"trpc.group/trpc-go/memq/errs"
	"trpc.group/trpc-go/memq/queue"
)

var (
	// ErrNilHandle is returned when the BIO, or the queue behind it, is absent.
	ErrNilHandle = errs.NewFrameError(errs.RetNilHandle, "bio handle is nil")
	// ErrEmpty is returned by Read when nothing is queued. More data may come later.
	ErrEmpty = queue.ErrEmpty
)
