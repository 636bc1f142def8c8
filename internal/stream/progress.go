// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package stream

// TransferState is what a progress observer sees on every poll.
type TransferState struct {
	Status       Status
	Name         string
	Size         int64
	Downloaded   int64
	DownloadRate int64
	UploadRate   int64
	Seeds        int
	Peers        int
}

// Progress observes one transfer phase. Open/Close bracket the phase;
// IsCancelled is checked once per poll interval and stops the phase when
// it reports true.
type Progress interface {
	Open()
	Close()
	IsCancelled() bool
	Update(state TransferState)
}

// NopProgress observes nothing and never cancels.
type NopProgress struct{}

func (NopProgress) Open()                {}
func (NopProgress) Close()               {}
func (NopProgress) IsCancelled() bool    { return false }
func (NopProgress) Update(TransferState) {}
