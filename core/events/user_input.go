package events

const (
	// KindUserAudioFrame identifies a raw user input audio frame.
	KindUserAudioFrame Kind = "user_input.audio_frame"
	// KindUserSpeechStarted identifies the start of detected speech activity.
	KindUserSpeechStarted Kind = "user_input.speech_started"
	// KindUserSpeechEnded identifies sustained silence after speech.
	KindUserSpeechEnded Kind = "user_input.speech_ended"
	// KindUserAudioLevel identifies a normalized input volume sample.
	KindUserAudioLevel Kind = "user_input.audio_level"
	// KindUserUtteranceFinal identifies the finalized encoded utterance.
	KindUserUtteranceFinal Kind = "user_input.utterance_final"
)

// UserAudioFrame carries a raw input audio frame.
type UserAudioFrame struct {
	Base
	Audio []byte
}

// NewUserAudioFrame creates a user audio frame event.
func NewUserAudioFrame(audio []byte) UserAudioFrame {
	return UserAudioFrame{Base: NewBase(KindUserAudioFrame), Audio: audio}
}

// UserSpeechStarted marks the start of detected speech activity.
type UserSpeechStarted struct{ Base }

// NewUserSpeechStarted creates a speech started event.
func NewUserSpeechStarted() UserSpeechStarted {
	return UserSpeechStarted{Base: NewBase(KindUserSpeechStarted)}
}

// UserSpeechEnded marks sustained silence after detected speech.
type UserSpeechEnded struct{ Base }

// NewUserSpeechEnded creates a speech ended event.
func NewUserSpeechEnded() UserSpeechEnded {
	return UserSpeechEnded{Base: NewBase(KindUserSpeechEnded)}
}

// UserAudioLevel carries a normalized 0-1 input volume sample.
type UserAudioLevel struct {
	Base
	Level float64
}

// NewUserAudioLevel creates an audio level event.
func NewUserAudioLevel(level float64) UserAudioLevel {
	return UserAudioLevel{Base: NewBase(KindUserAudioLevel), Level: level}
}

// UserUtteranceFinal carries the finalized encoded utterance for a turn.
type UserUtteranceFinal struct {
	Base
	Audio []byte
	MIME  string
}

// NewUserUtteranceFinal creates a finalized utterance event.
func NewUserUtteranceFinal(audio []byte, mime string) UserUtteranceFinal {
	return UserUtteranceFinal{Base: NewBase(KindUserUtteranceFinal), Audio: audio, MIME: mime}
}
