// Package events defines the typed engine event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - user_input.*
//   - assistant_response.*
//   - assistant_speech.*
//   - assistant_playback.*
//   - tool_call.*
//   - turn_state.*
//   - conversation.*
//
// Semantics used across the package:
//
//   - Frame: binary audio frame/chunk payload.
//   - Segment: append-only text piece emitted in stream order.
//   - Final: terminal immutable text/state for the current stream/turn phase.
//   - Ended: lifecycle boundary indicating stream completion.
//
// user_input events
//
//   - UserAudioFrame (user_input.audio_frame): raw user input audio frame.
//   - UserSpeechStarted (user_input.speech_started): speech activity began.
//   - UserSpeechEnded (user_input.speech_ended): sustained silence detected.
//   - UserAudioLevel (user_input.audio_level): normalized input volume sample.
//   - UserUtteranceFinal (user_input.utterance_final): finalized encoded
//     utterance for the current turn.
//
// assistant_response events
//
//   - AssistantResponseSegment (assistant_response.segment): streamed response
//     text segment.
//   - AssistantResponseFinal (assistant_response.final): response text stream
//     is complete.
//
// assistant_speech / assistant_playback events
//
//   - AssistantSpeechFrame (assistant_speech.frame): synthesized speech audio
//     chunk decoded from the stream.
//   - AssistantPlaybackStarted (assistant_playback.started): playback started.
//   - AssistantPlaybackEnded (assistant_playback.ended): playback queue drained
//     or was stopped.
//
// tool_call events
//
//   - ToolCallStarted (tool_call.started): tool execution started.
//   - ToolCallCompleted (tool_call.completed): tool execution completed.
//   - ToolCallFailed (tool_call.failed): tool execution failed.
//
// turn_state events
//
//   - TurnStarted (turn_state.started): capture began for a new turn.
//   - TurnCompleted (turn_state.completed): the stream signalled completion.
//   - TurnFailed (turn_state.failed): the turn ended with a terminal error.
//   - TurnCancelled (turn_state.cancelled): the turn was cancelled.
//
// conversation events
//
//   - ConversationCreated (conversation.created): the remote service assigned
//     a conversation id.
package events
