// Package raop implements the AirPlay real-time audio streaming core: clock
// synchronization, payload decryption, jitter-buffered resequencing,
// selective retransmission, and codec dispatch for the two UDP flows
// (control and RTP data) that carry an AirPlay audio stream.
//
// Discovery (mDNS), the RTSP control channel, pairing/handshake, H.264
// mirroring transport, and platform audio output are external collaborators;
// this module consumes a [Session] (keys, IV, codec identity) from a
// collaborator-owned store and exposes a [github.com/mycophonic/raop/sink]
// capability for decoded PCM.
package raop
