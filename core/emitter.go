package engine

import "github.com/converselabs/converse-core/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newCallbackEventEmitter(opts SessionOptions) eventEmitter {
	return func(event events.Event) {
		if opts.onEvent != nil {
			opts.onEvent(event)
		}

		switch typedEvent := event.(type) {
		case events.UserAudioLevel:
			if opts.onAudioLevel != nil {
				opts.onAudioLevel(typedEvent.Level)
			}
		case events.UserSpeechStarted:
			if opts.onSpeakingStateChanged != nil {
				opts.onSpeakingStateChanged(true)
			}
		case events.UserSpeechEnded:
			if opts.onSpeakingStateChanged != nil {
				opts.onSpeakingStateChanged(false)
			}
		case events.AssistantSpeechFrame:
			if opts.onAudio != nil {
				opts.onAudio(typedEvent.Audio)
			}
		}
	}
}
