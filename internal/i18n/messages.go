package i18n

// Key identifies a fixed user-facing string.
type Key string

const (
	NetworkError   Key = "network_error"
	ErrorPrefix    Key = "error_prefix"
	Greeting       Key = "greeting"
	SystemLabel    Key = "system_label"
	ClearConfirm   Key = "clear_confirm"
	ClearFailed    Key = "clear_failed"
	ClearDone      Key = "clear_done"
	EmptyMessage   Key = "empty_message"
	ServerError    Key = "server_error"
	LoginRequired  Key = "login_required"
	LoginButton    Key = "login_button"
	InputHint      Key = "input_hint"
	Copied         Key = "copied"
	NothingToCopy  Key = "nothing_to_copy"
	UnknownCommand Key = "unknown_command"
)

var catalog = map[Language]map[Key]string{
	LanguageKorean: {
		NetworkError:   "네트워크 오류가 발생했습니다. 다시 시도해주세요.",
		ErrorPrefix:    "오류",
		Greeting:       "안녕하세요! 저는 AI 어시스턴트입니다. 무엇을 도와드릴까요?",
		SystemLabel:    "시스템",
		ClearConfirm:   "채팅 기록을 모두 삭제하시겠습니까?",
		ClearFailed:    "채팅 삭제 중 오류가 발생했습니다.",
		ClearDone:      "채팅 기록이 삭제되었습니다.",
		EmptyMessage:   "메시지가 비어있습니다.",
		ServerError:    "오류가 발생했습니다",
		LoginRequired:  "카카오 계정 인증이 필요합니다. 아래 버튼으로 로그인해주세요.",
		LoginButton:    "카카오 로그인",
		InputHint:      "메시지를 입력하세요…",
		Copied:         "마지막 응답을 클립보드에 복사했습니다.",
		NothingToCopy:  "복사할 응답이 없습니다.",
		UnknownCommand: "알 수 없는 명령입니다",
	},
	LanguageEnglish: {
		NetworkError:   "A network error occurred. Please try again.",
		ErrorPrefix:    "Error",
		Greeting:       "Hello! I'm your AI assistant. How can I help?",
		SystemLabel:    "System",
		ClearConfirm:   "Delete the entire chat history?",
		ClearFailed:    "Failed to delete the chat history.",
		ClearDone:      "Chat history deleted.",
		EmptyMessage:   "Message is empty.",
		ServerError:    "An error occurred",
		LoginRequired:  "Kakao sign-in is required. Use the button below to log in.",
		LoginButton:    "Log in with Kakao",
		InputHint:      "Type a message…",
		Copied:         "Copied the last reply to the clipboard.",
		NothingToCopy:  "No reply to copy yet.",
		UnknownCommand: "Unknown command",
	},
}

// T returns the message for key in lang, falling back to the default language and
// finally to the key itself.
func T(lang Language, key Key) string {
	if msgs, ok := catalog[Normalize(string(lang))]; ok {
		if msg, ok := msgs[key]; ok {
			return msg
		}
	}
	if msg, ok := catalog[DefaultLanguage][key]; ok {
		return msg
	}
	return string(key)
}
