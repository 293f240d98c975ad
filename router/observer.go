// Copyright (c) 2021 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package router

import "github.com/uber-go/tally"

var (
	_routeMissingName        = "route_missing"
	_unknownClusterName      = "unknown_cluster"
	_maintenanceModeName     = "upstream_rq_maintenance_mode"
	_noHealthyUpstreamName   = "no_healthy_upstream"
	_rqCallName              = "upstream_rq_call"
	_rqOnewayName            = "upstream_rq_oneway"
	_rqInvalidTypeName       = "upstream_rq_invalid_type"
	_respReplyName           = "upstream_resp_reply"
	_respReplySuccessName    = "upstream_resp_reply_success"
	_respReplyErrorName      = "upstream_resp_reply_error"
	_respExceptionName       = "upstream_resp_exception"
	_respInvalidTypeName     = "upstream_resp_invalid_type"
	_rqSizeName              = "upstream_rq_size"
	_respSizeName            = "upstream_resp_size"
	_rqTimeName              = "upstream_rq_time"
	_clusterTag              = "cluster"
)

// observer records routing outcomes to tally.
type observer struct {
	scope tally.Scope

	routeMissing      tally.Counter
	unknownCluster    tally.Counter
	maintenanceMode   tally.Counter
	noHealthyUpstream tally.Counter
}

func newObserver(scope tally.Scope) *observer {
	return &observer{
		scope:             scope,
		routeMissing:      scope.Counter(_routeMissingName),
		unknownCluster:    scope.Counter(_unknownClusterName),
		maintenanceMode:   scope.Counter(_maintenanceModeName),
		noHealthyUpstream: scope.Counter(_noHealthyUpstreamName),
	}
}

// cluster returns per-destination-cluster instruments. Tally caches tagged
// subscopes, so building this per call is cheap.
func (o *observer) cluster(name string) clusterObserver {
	scope := o.scope.Tagged(map[string]string{_clusterTag: name})
	return clusterObserver{
		rqCall:           scope.Counter(_rqCallName),
		rqOneway:         scope.Counter(_rqOnewayName),
		rqInvalidType:    scope.Counter(_rqInvalidTypeName),
		respReply:        scope.Counter(_respReplyName),
		respReplySuccess: scope.Counter(_respReplySuccessName),
		respReplyError:   scope.Counter(_respReplyErrorName),
		respException:    scope.Counter(_respExceptionName),
		respInvalidType:  scope.Counter(_respInvalidTypeName),
		rqSize:           scope.Histogram(_rqSizeName, tally.DefaultBuckets),
		respSize:         scope.Histogram(_respSizeName, tally.DefaultBuckets),
		rqTime:           scope.Timer(_rqTimeName),
	}
}

// clusterObserver holds the instruments scoped to one destination cluster.
type clusterObserver struct {
	rqCall           tally.Counter
	rqOneway         tally.Counter
	rqInvalidType    tally.Counter
	respReply        tally.Counter
	respReplySuccess tally.Counter
	respReplyError   tally.Counter
	respException    tally.Counter
	respInvalidType  tally.Counter
	rqSize           tally.Histogram
	respSize         tally.Histogram
	rqTime           tally.Timer
}
