package usgs

// TopicName is the default topic of the earthquake source.
const TopicName = "usgs_earthquake_data"

// EarthquakeSchema is the Avro value schema of an earthquake record.
// $namespace is substituted when the dispatcher is built.
const EarthquakeSchema = `{
  "type": "record",
  "name": "usgsEarthquakeData",
  "namespace": "$namespace",
  "doc": "Collection of earthquakes near the summit.",
  "fields": [
    {"name": "timestamp", "type": "long"},
    {"name": "id", "type": "string", "doc": "unique earthquake id"},
    {"name": "latitude", "type": "float", "units": "degree"},
    {"name": "longitude", "type": "float", "units": "degree"},
    {"name": "depth", "type": "float", "units": "km"},
    {"name": "magnitude", "type": "float", "units": "u.richter_magnitudes"}
  ]
}`
