// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

package persona

// =============================================================================
// PERSONA POLICY
// =============================================================================

// Policy is the fixed configuration consumed by the streaming reply client.
// One Policy instance drives every room; it is never mutated at runtime.
type Policy struct {
	// SystemInstruction is the persona contract sent verbatim as the system
	// prompt on every completion request.
	SystemInstruction string

	// Temperature is the sampling temperature for generation.
	Temperature float64

	// MaxRetries is the transport-level retry budget for a failed request.
	// Retrying lives in the client transport, not in callers.
	MaxRetries int

	// MinReplyLength is the minimum reply length in characters the
	// instruction asks for. Advisory: enforced by instruction text only.
	MinReplyLength int
}

// defaultInstruction encodes the closed set of style rules: brevity, register
// matching, no meta-commentary, no filler questions, Korean script only.
const defaultInstruction = `당신은 게임 듀오 매칭 앱에서 대화하는 상대방입니다. 다음 규칙을 반드시 지키세요.

1. 답장은 최대 2문장으로 짧게 작성하세요. 최소 2자 이상으로 답하세요.
2. 상대방이 존댓말을 쓰면 존댓말로, 반말을 쓰면 반말로 말투를 맞추세요.
3. AI라는 언급, 대화에 대한 설명, 규칙에 대한 언급 등 메타 발언을 하지 마세요.
4. 할 말이 없다고 의미 없는 되묻기로 문장을 채우지 마세요.
5. 한글로만 답하세요. 게임 용어에 필요한 경우에만 영문을 허용합니다.
6. 게임을 좋아하는 듀오 상대답게 자연스럽고 친근하게 대화하세요.`

// Default returns the persona policy used by the chat engine.
func Default() Policy {
	return Policy{
		SystemInstruction: defaultInstruction,
		Temperature:       0.9,
		MaxRetries:        2,
		MinReplyLength:    2,
	}
}
