// Copyright (c) 2020-2026, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package cli

import (
	"github.com/alecthomas/participle"
)

// noinspection GoStructTag
type Command struct {
	Channel  *ChannelCmd  `  @@` //nolint
	CrcError *CrcErrorCmd `| @@` //nolint
	Diag     *DiagCmd     `| @@` //nolint
	Duty     *DutyCmd     `| @@` //nolint
	Exit     *ExitCmd     `| @@` //nolint
	Flush    *FlushCmd    `| @@` //nolint
	Go       *GoCmd       `| @@` //nolint
	Help     *HelpCmd     `| @@` //nolint
	Inject   *InjectCmd   `| @@` //nolint
	LogLevel *LogLevelCmd `| @@` //nolint
	Pcap     *PcapCmd     `| @@` //nolint
	Reject   *RejectCmd   `| @@` //nolint
	Release  *ReleaseCmd  `| @@` //nolint
	Report   *ReportCmd   `| @@` //nolint
	Rx       *RxCmd       `| @@` //nolint
	State    *StateCmd    `| @@` //nolint
	Stats    *StatsCmd    `| @@` //nolint
	Stop     *StopCmd     `| @@` //nolint
	Time     *TimeCmd     `| @@` //nolint
	Trace    *TraceCmd    `| @@` //nolint
	Tx       *TxCmd       `| @@` //nolint
	TxPower  *TxPowerCmd  `| @@` //nolint
	Wakeup   *WakeupCmd   `| @@` //nolint
}

// noinspection GoStructTag
type ChannelCmd struct {
	Cmd     struct{} `"channel"` //nolint
	Channel *int     `[ @Int ]`  //nolint
}

// noinspection GoStructTag
type CrcErrorCmd struct {
	Cmd struct{} `"crcerr"` //nolint
}

// noinspection GoStructTag
type DiagCmd struct {
	Cmd struct{} `"diag"` //nolint
}

// noinspection GoStructTag
type DutyCmd struct {
	Cmd struct{} `"duty"`   //nolint
	On  *OnFlag  `[ ( @@`   //nolint
	Off *OffFlag `| @@ ) ]` //nolint
}

// noinspection GoStructTag
type ExitCmd struct {
	Cmd struct{} `"exit"` //nolint
}

// noinspection GoStructTag
type FlushCmd struct {
	Cmd struct{} `"flush"` //nolint
}

// noinspection GoStructTag
type GoCmd struct {
	Cmd  struct{} `"go"`                                   //nolint
	Time string   `@((Int|Float)["h"|"us"|"m"|"ms"|"s"])` //nolint
}

// noinspection GoStructTag
type HelpCmd struct {
	Cmd       struct{} `"help"`       //nolint
	HelpTopic string   `[ (@Ident) ]` //nolint
}

// noinspection GoStructTag
type InjectCmd struct {
	Cmd  struct{} `"inject"`                //nolint
	Seq  *int     `( "seq" @Int`            //nolint
	Size *int     `| "size" @Int`           //nolint
	Ack  *AckFlag `| @@`                    //nolint
	Dst  string   `| "dst" @Int`            //nolint
	Rssi string   `| "rssi" @("-"? Int) )*` //nolint
}

// noinspection GoStructTag
type LogLevelCmd struct {
	Cmd   struct{} `"log"`                                                                                   //nolint
	Level string   `[@( "micro"|"trace"|"debug"|"info"|"note"|"warn"|"error"|"off"|"T"|"D"|"I"|"N"|"W"|"E" )]` //nolint
}

// noinspection GoStructTag
type PcapCmd struct {
	Cmd    struct{} `"pcap"`                             //nolint
	Off    *OffFlag `( @@`                               //nolint
	File   string   `| @String`                          //nolint
	Format string   `  [ "format" @("wpan"|"tap") ] )`  //nolint
}

// noinspection GoStructTag
type RejectCmd struct {
	Cmd   struct{} `"reject"` //nolint
	Count *int     `[ @Int ]` //nolint
}

// noinspection GoStructTag
type ReleaseCmd struct {
	Cmd struct{} `"release"` //nolint
}

// noinspection GoStructTag
type ReportCmd struct {
	Cmd struct{} `"report"` //nolint
}

// noinspection GoStructTag
type RxCmd struct {
	Cmd struct{} `"rx"`     //nolint
	On  *OnFlag  `[ ( @@`   //nolint
	Off *OffFlag `| @@ ) ]` //nolint
}

// noinspection GoStructTag
type StateCmd struct {
	Cmd struct{} `"state"` //nolint
}

// noinspection GoStructTag
type StatsCmd struct {
	Cmd struct{} `"stats"` //nolint
}

// noinspection GoStructTag
type StopCmd struct {
	Cmd      struct{}      `"stop"` //nolint
	Graceful *GracefulFlag `[ @@ ]` //nolint
}

// noinspection GoStructTag
type TimeCmd struct {
	Cmd struct{} `"time"` //nolint
}

// noinspection GoStructTag
type TraceCmd struct {
	Cmd   struct{}   `"trace"`   //nolint
	Clear *ClearFlag `( @@`      //nolint
	Count *int       `| @Int )?` //nolint
}

// noinspection GoStructTag
type TxCmd struct {
	Cmd    struct{}    `"tx"`                              //nolint
	Seq    *int        `( "seq" @Int`                      //nolint
	Size   *int        `| "size" @Int`                     //nolint
	Ack    *AckFlag    `| @@`                              //nolint
	Beacon *BeaconFlag `| @@`                              //nolint
	Type   string      `| @("csma"|"slotted"|"nocsma") )*` //nolint
}

// noinspection GoStructTag
type TxPowerCmd struct {
	Cmd struct{} `"txpower"`       //nolint
	Dbm string   `[ @("-"? Int) ]` //nolint
}

// noinspection GoStructTag
type WakeupCmd struct {
	Cmd  struct{} `"wakeup"`                       //nolint
	Time string   `@((Int|Float)["us"|"ms"|"s"])` //nolint
}

// noinspection GoStructTag
type AckFlag struct {
	Dummy struct{} `"ack"` //nolint
}

// noinspection GoStructTag
type BeaconFlag struct {
	Dummy struct{} `"beacon"` //nolint
}

// noinspection GoStructTag
type ClearFlag struct {
	Dummy struct{} `"clear"` //nolint
}

// noinspection GoStructTag
type GracefulFlag struct {
	Dummy struct{} `"graceful"` //nolint
}

// noinspection GoStructTag
type OnFlag struct {
	Dummy struct{} `"on"` //nolint
}

// noinspection GoStructTag
type OffFlag struct {
	Dummy struct{} `"off"` //nolint
}

var (
	commandParser = participle.MustBuild(&Command{})
)

func parseBytes(b []byte, cmd *Command) error {
	return commandParser.ParseBytes(b, cmd)
}
