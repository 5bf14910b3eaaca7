package log

func SessionStart(device string, nativeRate int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("device", device).
		Int("native_rate", nativeRate).
		Msg("session_start")
}

func SessionEnd(outcome string, chars int, elapsedS float64) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("outcome", outcome).
		Int("chars", chars).
		Float64("elapsed_s", elapsedS).
		Msg("session_end")
}

func Bluetooth(event, card, profile string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("card", card).
		Str("profile", profile).
		Msg(event)
}

func DroppedFrames(count int) {
	if !logReady || count == 0 {
		return
	}
	diagLog.Warn().Int("frames", count).Msg("audio_queue_overflow")
}

func DaemonListen(socket, engine string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("socket", socket).
		Str("engine", engine).
		Msg("daemon_listen")
}

func Transcription(audioS, transcribeS float64, segments, chars int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Float64("audio_s", audioS).
		Float64("transcribe_s", transcribeS).
		Int("segments", segments).
		Int("chars", chars).
		Msg("transcription")
}

func ConnectionError(err error) {
	if !logReady {
		return
	}
	diagLog.Error().Err(err).Msg("connection_error")
}

// Upload records the network phases of one engine request, in ms.
func Upload(dnsMS, tcpMS, tlsMS, bodyMS, ttfbMS, totalMS float64, reused bool) {
	if !logReady {
		return
	}
	diagLog.Info().
		Float64("dns_ms", dnsMS).
		Float64("tcp_ms", tcpMS).
		Float64("tls_ms", tlsMS).
		Float64("upload_ms", bodyMS).
		Float64("ttfb_ms", ttfbMS).
		Float64("total_ms", totalMS).
		Bool("conn_reused", reused).
		Msg("engine_request")
}
